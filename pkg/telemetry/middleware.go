package telemetry

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the trace id back to the caller
const TraceIDHeader = "X-Trace-ID"

const httpTracerName = "webinar-service/http"

// TracingMiddleware opens a server span per request, continuing any incoming
// W3C trace context. Paths in skip (probes) are not traced.
func TracingMiddleware(serviceName string, skip ...string) gin.HandlerFunc {
	tracer := otel.Tracer(httpTracerName)
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.ClientAddress(c.ClientIP()),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(TraceIDHeader, sc.TraceID().String())
			c.Set("trace_id", sc.TraceID().String())
		}
		if id := c.Param("id"); id != "" {
			span.SetAttributes(attribute.String("webinar_id", id))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if userID := c.GetString("user_id"); userID != "" {
			span.SetAttributes(attribute.String("user_id", userID))
		}
		for _, ginErr := range c.Errors {
			span.RecordError(ginErr.Err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
		}
	}
}
