// Package observe holds the telemetry shared by every soundalike component:
// OTel metric instruments, spans, trace-aware slog loggers and the HTTP
// middleware joining them.
//
// [InitProvider] installs the global providers and exposes a Prometheus
// handler. Library code records through [DefaultMetrics]; tests build their
// own with [NewMetrics] over a manual reader.
package observe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName scopes every soundalike instrument and span.
const meterName = "github.com/MrWong99/soundalike"

// Metrics is the set of soundalike instruments. Attribute keys are listed per
// field; OTel instruments are safe for concurrent use.
type Metrics struct {
	OracleDuration    metric.Float64Histogram // template
	OracleRequests    metric.Int64Counter     // template, status
	OracleErrors      metric.Int64Counter     // template, kind
	CacheLookups      metric.Int64Counter     // result=hit|miss
	FilteredSpellings metric.Int64Counter

	GenerateDuration metric.Float64Histogram // strategy
	Candidates       metric.Int64Histogram   // strategy

	HTTPRequestDuration metric.Float64Histogram // method, path (mux pattern)
}

// Bucket boundaries: seconds sized for LLM round trips, and powers of four
// for the combinatorial candidate counts.
var (
	latencyBuckets   = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	candidateBuckets = []float64{1, 4, 16, 64, 256, 1024, 4096, 16384}
)

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var (
		met  Metrics
		errs []error
	)
	seconds := func(dst *metric.Float64Histogram, name, desc string, buckets ...float64) {
		opts := []metric.Float64HistogramOption{metric.WithDescription(desc), metric.WithUnit("s")}
		if len(buckets) > 0 {
			opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
		}
		h, err := m.Float64Histogram(name, opts...)
		*dst = h
		errs = append(errs, err)
	}
	counter := func(dst *metric.Int64Counter, name, desc string) {
		c, err := m.Int64Counter(name, metric.WithDescription(desc))
		*dst = c
		errs = append(errs, err)
	}

	seconds(&met.OracleDuration, "soundalike.oracle.duration", "Latency of oracle requests.", latencyBuckets...)
	seconds(&met.GenerateDuration, "soundalike.generate.duration", "Latency of generating misspellings for one word.", latencyBuckets...)
	seconds(&met.HTTPRequestDuration, "soundalike.http.request.duration", "HTTP request latency by method and route.")
	counter(&met.OracleRequests, "soundalike.oracle.requests", "Oracle requests by template and status.")
	counter(&met.OracleErrors, "soundalike.oracle.errors", "Failed oracle requests by template and kind.")
	counter(&met.CacheLookups, "soundalike.oracle.cache.lookups", "Oracle cache lookups by result.")
	counter(&met.FilteredSpellings, "soundalike.spellings.filtered", "Oracle spellings rejected by the alphabetic filter.")

	var err error
	met.Candidates, err = m.Int64Histogram("soundalike.candidates",
		metric.WithDescription("Candidate misspellings produced per word."),
		metric.WithExplicitBucketBoundaries(candidateBuckets...),
	)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("observe: create instruments: %w", err)
	}
	return &met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics lazily creates one [Metrics] on the global meter provider.
// Call [InitProvider] first so the instruments reach the Prometheus registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordOracleRequest records one finished oracle request. kind is empty on
// success and the error kind otherwise.
func (m *Metrics) RecordOracleRequest(ctx context.Context, template string, elapsed time.Duration, kind string) {
	status := "ok"
	if kind != "" {
		status = "error"
		m.OracleErrors.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("template", template),
				attribute.String("kind", kind),
			),
		)
	}
	m.OracleRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("template", template),
			attribute.String("status", status),
		),
	)
	m.OracleDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("template", template)),
	)
}

// RecordCacheLookup records an oracle cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordFilteredSpellings records n spellings rejected by the alphabetic filter.
func (m *Metrics) RecordFilteredSpellings(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.FilteredSpellings.Add(ctx, int64(n))
}

// RecordGeneration records the outcome of generating misspellings for a word.
func (m *Metrics) RecordGeneration(ctx context.Context, strategy string, elapsed time.Duration, candidates int) {
	attrs := metric.WithAttributes(attribute.String("strategy", strategy))
	m.GenerateDuration.Record(ctx, elapsed.Seconds(), attrs)
	m.Candidates.Record(ctx, int64(candidates), attrs)
}
