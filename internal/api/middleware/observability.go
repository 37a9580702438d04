package middleware

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/careconnect/backend/internal/infrastructure/observability"
)

const unmatchedRoute = "unmatched"

// matchedRoute is filled in by MarkRoute once the mux has picked a handler.
// Middlewares above the mux see a different *http.Request, so r.Pattern is
// never visible to them directly.
type matchedRoute struct {
	pattern  string
	function string
}

type matchedRouteKey struct{}

// MarkRoute reports the matched pattern, and the callable name for function
// routes, to ObservabilityMiddleware
func MarkRoute(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if route, ok := r.Context().Value(matchedRouteKey{}).(*matchedRoute); ok {
			route.pattern = r.Pattern
			route.function = r.PathValue("name")
		}
		next(w, r)
	}
}

// ObservabilityMiddleware traces requests and records request metrics labelled
// by route pattern. Health checks are passed through untouched.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			route := &matchedRoute{}
			ctx := context.WithValue(r.Context(), matchedRouteKey{}, route)
			ctx, span := observability.StartSpan(ctx, r.Method+" "+r.URL.Path)
			defer span.End()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r.WithContext(ctx))

			label := route.pattern
			if label == "" {
				label = unmatchedRoute
			} else {
				span.SetName(label)
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", label),
				attribute.Int("http.status_code", rw.statusCode),
			}
			if route.function != "" {
				attrs = append(attrs, attribute.String("careconnect.function", route.function))
			}
			observability.SetSpanAttributes(span, attrs...)
			observability.RecordRequestMetric(ctx, metrics, r.Method, label, rw.statusCode, time.Since(start))
		})
	}
}

// responseWriter captures the status code and keeps streaming responses flushable
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
