package http

import (
	"io"
	"net/http"
)

// Response defers writing the status line until the first body write so
// handlers can set the status and content type in any order.
type Response struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
	size        int
}

func NewResponse(w http.ResponseWriter) *Response {
	return &Response{ResponseWriter: w}
}

func (response *Response) WriteHeader(status int) {
	if response.wroteHeader {
		return
	}

	response.status = status
	response.wroteHeader = true
	response.ResponseWriter.WriteHeader(status)
}

func (response *Response) Write(data []byte) (int, error) {
	if !response.wroteHeader {
		response.WriteHeader(response.Status())
	}

	n, err := response.ResponseWriter.Write(data)
	response.size += n
	return n, err
}

func (response *Response) Status() int {
	if response.status == 0 {
		return http.StatusOK
	}
	return response.status
}

func (response *Response) Size() int {
	return response.size
}

func (response *Response) Written() bool {
	return response.wroteHeader
}

func (response *Response) WithStatus(status int) *Response {
	if !response.wroteHeader {
		response.status = status
	}
	return response
}

func (response *Response) WithText(data string) *Response {
	if !response.wroteHeader {
		response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	io.WriteString(response, data)
	return response
}

// WithError writes the generic status text for status. Error details never
// reach the client.
func (response *Response) WithError(status int) *Response {
	return response.WithStatus(status).WithText(http.StatusText(status) + "\n")
}
