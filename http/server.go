package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const DefaultReadHeaderTimeout = 5 * time.Second

type Server struct {
	Name   string
	Router *Router

	ReadHeaderTimeout time.Duration
	TracerProvider    trace.TracerProvider
	MeterProvider     metric.MeterProvider

	// OnListen, when set, receives the bound address before the first
	// connection is accepted.
	OnListen func(net.Addr)

	mu     sync.Mutex
	server *http.Server
	closed bool
}

func NewServer(name string, router *Router) *Server {
	return &Server{
		Name:              name,
		Router:            router,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
}

// Handler returns the compiled router wrapped in OpenTelemetry
// instrumentation. Nil providers fall back to the global ones.
func (server *Server) Handler() http.Handler {
	var opts []otelhttp.Option
	if server.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(server.TracerProvider))
	}
	if server.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(server.MeterProvider))
	}

	return otelhttp.NewHandler(server.Router.Handler(), server.Name, opts...)
}

func (server *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return server.Serve(listener)
}

// Serve blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil. A Server cannot be reused after Shutdown.
func (server *Server) Serve(listener net.Listener) error {
	server.mu.Lock()
	if server.closed {
		server.mu.Unlock()
		listener.Close()
		return nil
	}
	server.server = &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: server.ReadHeaderTimeout,
	}
	srv := server.server
	server.mu.Unlock()

	if server.OnListen != nil {
		server.OnListen(listener.Addr())
	}

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (server *Server) Shutdown(ctx context.Context) error {
	server.mu.Lock()
	server.closed = true
	srv := server.server
	server.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}
