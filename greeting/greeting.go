// Package greeting implements the two greeting routes, optionally signed
// with the name of the machine serving them.
package greeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/freekieb7/greeter/http"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const name = "github.com/freekieb7/greeter/greeting"

var ErrHostname = errors.New("greeting: hostname unavailable")

// HostnameFunc reports the network name of the local machine.
type HostnameFunc func() (string, error)

// OSHostname asks the operating system for the hostname.
var OSHostname HostnameFunc = os.Hostname

func FormatIndex(host string) string {
	if host == "" {
		return "Hello, world!\n"
	}
	return fmt.Sprintf("Hello, world, from %s!\n", host)
}

func FormatHello(who, host string) string {
	if host == "" {
		return fmt.Sprintf("Hello, %s!\n", who)
	}
	return fmt.Sprintf("Hello, %s, from %s!\n", who, host)
}

type Greeter struct {
	includeHostname bool
	hostname        HostnameFunc
	logger          *slog.Logger
	tracer          trace.Tracer
	requests        metric.Int64Counter
}

type Option func(*options)

type options struct {
	includeHostname bool
	hostname        HostnameFunc
	logger          *slog.Logger
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider
}

// WithHostname signs every greeting with the machine hostname.
func WithHostname(include bool) Option {
	return func(o *options) { o.includeHostname = include }
}

func WithHostnameFunc(fn HostnameFunc) Option {
	return func(o *options) { o.hostname = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

func New(opts ...Option) (*Greeter, error) {
	o := options{
		hostname:       OSHostname,
		logger:         slog.Default(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	requests, err := o.meterProvider.Meter(name).Int64Counter("greeting.requests",
		metric.WithDescription("The number of greetings served by route and outcome"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, fmt.Errorf("greeting: counter: %w", err)
	}

	return &Greeter{
		includeHostname: o.includeHostname,
		hostname:        o.hostname,
		logger:          o.logger,
		tracer:          o.tracerProvider.Tracer(name),
		requests:        requests,
	}, nil
}

func (greeter *Greeter) Index(ctx context.Context) (string, error) {
	host, err := greeter.host(ctx)
	if err != nil {
		return "", err
	}
	return FormatIndex(host), nil
}

func (greeter *Greeter) Hello(ctx context.Context, who string) (string, error) {
	host, err := greeter.host(ctx)
	if err != nil {
		return "", err
	}
	return FormatHello(who, host), nil
}

// host is empty when hostnames are disabled. An empty answer from the
// resolver counts as a failure.
func (greeter *Greeter) host(ctx context.Context) (string, error) {
	if !greeter.includeHostname {
		return "", nil
	}

	_, span := greeter.tracer.Start(ctx, "hostname")
	defer span.End()

	host, err := greeter.hostname()
	if err == nil && host == "" {
		err = errors.New("empty hostname")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: %w", ErrHostname, err)
	}

	span.SetAttributes(attribute.String("host.name", host))
	return host, nil
}

// Register binds the greeting routes on router.
func (greeter *Greeter) Register(router *http.Router) {
	router.Get("/", greeter.handle("index", func(ctx context.Context, request *http.Request) (string, error) {
		return greeter.Index(ctx)
	}))
	router.Get("/hello/:name", greeter.handle("hello", func(ctx context.Context, request *http.Request) (string, error) {
		return greeter.Hello(ctx, request.Param("name"))
	}))
}

func (greeter *Greeter) handle(route string, greet func(ctx context.Context, request *http.Request) (string, error)) http.HandlerFunc {
	routeAttr := attribute.String("greeting.route", route)

	return func(request *http.Request, response *http.Response) {
		ctx, span := greeter.tracer.Start(request.Context(), "greeting."+route,
			trace.WithAttributes(routeAttr))
		defer span.End()

		body, err := greet(ctx, request)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			greeter.requests.Add(ctx, 1, metric.WithAttributes(routeAttr, attribute.String("outcome", "error")))

			greeter.logger.ErrorContext(ctx, "greeting failed",
				"route", route,
				"error", err,
				"request_id", http.RequestID(ctx),
			)

			response.WithError(nethttp.StatusInternalServerError)
			return
		}

		greeter.requests.Add(ctx, 1, metric.WithAttributes(routeAttr, attribute.String("outcome", "ok")))
		response.WithText(body)
	}
}
