package observe

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// MiddlewareOption configures [Middleware].
type MiddlewareOption func(*middleware)

// WithQuietPaths logs requests for the given exact paths at debug level.
// Meant for probes and scrapes that would otherwise flood the log.
func WithQuietPaths(paths ...string) MiddlewareOption {
	return func(mw *middleware) { mw.quiet = append(mw.quiet, paths...) }
}

type middleware struct {
	metrics *Metrics
	prop    propagation.TextMapPropagator
	quiet   []string
	next    http.Handler
}

// Middleware traces, times and logs every request. It continues an incoming
// W3C trace, echoes the trace ID as X-Correlation-ID and labels the duration
// histogram with the matched mux pattern so words in URLs stay out of metric
// labels.
func Middleware(m *Metrics, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	base := middleware{metrics: m, prop: propagation.TraceContext{}}
	for _, opt := range opts {
		opt(&base)
	}
	return func(next http.Handler) http.Handler {
		mw := base
		mw.next = next
		return &mw
	}
}

func (mw *middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := mw.prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := StartSpan(ctx, r.Method+" "+r.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(semconv.HTTPRequestMethodKey.String(r.Method), semconv.URLPath(r.URL.Path)),
	)
	defer span.End()

	cid := CorrelationID(ctx)
	if cid != "" {
		w.Header().Set("X-Correlation-ID", cid)
	}
	mw.prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	r = r.WithContext(ctx)
	mw.next.ServeHTTP(sw, r)
	elapsed := time.Since(start)

	// ServeMux sets r.Pattern on the request it was handed.
	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	mw.metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("method", r.Method),
		attribute.String("path", route),
	))
	span.SetAttributes(semconv.HTTPResponseStatusCode(sw.status), semconv.HTTPRoute(route))
	if sw.status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(sw.status))
	}

	level := slog.LevelInfo
	if slices.Contains(mw.quiet, r.URL.Path) {
		level = slog.LevelDebug
	}
	slog.LogAttrs(ctx, level, "request completed",
		slog.String("trace_id", cid),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", sw.status),
		slog.Duration("duration", elapsed),
	)
}

// statusWriter remembers the status code the handler wrote.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
