package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/tracing"
)

const TraceIDHeader = "X-Trace-ID"

// Tracing wraps handlers with OpenTelemetry instrumentation. Trace context
// propagates from the traceparent header; the response carries X-Trace-ID so
// a browser request can be correlated with backend spans.
func Tracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if traceID := tracing.TraceIDFromContext(ctx); traceID != "" {
				w.Header().Set(TraceIDHeader, traceID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}),
		"http.request",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithPropagators(otel.GetTextMapPropagator()),
	)
}
