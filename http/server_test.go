package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/freekieb7/greeter/test"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestServerServeAndShutdown(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	router := NewRouter()
	router.Get("/", func(request *Request, response *Response) {
		response.WithText("OK")
	})

	server := NewServer("test", router)
	server.TracerProvider = tp

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	test.AssertNoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	res, err := http.Get("http://" + listener.Addr().String() + "/")
	test.AssertNoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	test.AssertNoError(t, err)

	test.AssertEqual(t, http.StatusOK, res.StatusCode)
	test.AssertEqual(t, "OK", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	test.AssertNoError(t, server.Shutdown(ctx))
	test.AssertNoError(t, <-errCh)

	test.AssertEqual(t, 1, len(exporter.GetSpans()))
}

func TestServerShutdownBeforeServe(t *testing.T) {
	server := NewServer("test", NewRouter())
	test.AssertNoError(t, server.Shutdown(context.Background()))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	test.AssertNoError(t, err)
	test.AssertNoError(t, server.Serve(listener))

	_, err = net.Dial("tcp", listener.Addr().String())
	test.AssertError(t, err)
}

func TestServerListenAndServe(t *testing.T) {
	router := NewRouter()
	router.Get("/", func(request *Request, response *Response) {
		response.WithText("OK")
	})

	addrCh := make(chan net.Addr, 1)
	server := NewServer("test", router)
	server.OnListen = func(addr net.Addr) {
		addrCh <- addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe("127.0.0.1:0")
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("server stopped before listening: %v", err)
	}

	res, err := http.Get("http://" + addr.String() + "/")
	test.AssertNoError(t, err)
	res.Body.Close()
	test.AssertEqual(t, http.StatusOK, res.StatusCode)

	test.AssertNoError(t, server.Shutdown(context.Background()))
	test.AssertNoError(t, <-errCh)
}

func TestServerListenAndServeInvalidAddr(t *testing.T) {
	server := NewServer("test", NewRouter())
	server.OnListen = func(net.Addr) {
		t.Error("OnListen called for a failed listen")
	}

	test.AssertError(t, server.ListenAndServe("127.0.0.1:-1"))
}

func BenchmarkRouter(b *testing.B) {
	router := NewRouter()
	router.Get("/hello/:name", func(request *Request, response *Response) {
		response.WithText(request.Param("name"))
	})
	handler := router.Handler()

	req, _ := http.NewRequest(http.MethodGet, "/hello/bench", nil)

	for b.Loop() {
		handler.ServeHTTP(discardWriter{header: http.Header{}}, req)
	}
}

type discardWriter struct {
	header http.Header
}

func (w discardWriter) Header() http.Header         { return w.header }
func (w discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w discardWriter) WriteHeader(int)             {}
