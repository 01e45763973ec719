package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-Id"

type MiddlewareFunc func(next Handler) Handler

type requestIDKey struct{}

// RequestID returns the id assigned by RequestIDMiddleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func RecoverMiddleware(logger *slog.Logger) MiddlewareFunc {
	return func(next Handler) Handler {
		return HandlerFunc(func(request *Request, response *Response) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.ErrorContext(request.Context(), "handler panicked",
						"panic", recovered,
						"method", request.Method(),
						"path", request.Path(),
						"request_id", RequestID(request.Context()),
						"stack", string(debug.Stack()),
					)

					if !response.Written() {
						response.WithError(http.StatusInternalServerError)
					}
				}
			}()

			next.ServeHTTP(request, response)
		})
	}
}

// RequestIDMiddleware echoes an incoming X-Request-Id or assigns a new
// UUID, and exposes it through RequestID.
func RequestIDMiddleware() MiddlewareFunc {
	return func(next Handler) Handler {
		return HandlerFunc(func(request *Request, response *Response) {
			id := request.Header(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			request.WithValue(requestIDKey{}, id)
			response.Header().Set(HeaderRequestID, id)

			next.ServeHTTP(request, response)
		})
	}
}

func LoggingMiddleware(logger *slog.Logger) MiddlewareFunc {
	return func(next Handler) Handler {
		return HandlerFunc(func(request *Request, response *Response) {
			start := time.Now()

			next.ServeHTTP(request, response)

			logger.InfoContext(request.Context(), "http request",
				"method", request.Method(),
				"path", request.Path(),
				"status", response.Status(),
				"bytes", response.Size(),
				"duration", time.Since(start),
				"remote_addr", request.RemoteAddr(),
				"request_id", RequestID(request.Context()),
			)
		})
	}
}
