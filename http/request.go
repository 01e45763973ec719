package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
)

type Request struct {
	original *http.Request
	params   httprouter.Params
}

func (request *Request) Method() string {
	return request.original.Method
}

func (request *Request) Path() string {
	return request.original.URL.Path
}

// Param returns the percent-decoded value of the named path parameter, or
// the empty string when the route does not declare it.
func (request *Request) Param(name string) string {
	value := request.params.ByName(name)
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

func (request *Request) Header(name string) string {
	return request.original.Header.Get(name)
}

func (request *Request) RemoteAddr() string {
	return request.original.RemoteAddr
}

func (request *Request) Context() context.Context {
	return request.original.Context()
}

// WithValue stores val in the request context for downstream handlers.
func (request *Request) WithValue(key, val any) {
	request.original = request.original.WithContext(context.WithValue(request.original.Context(), key, val))
}
