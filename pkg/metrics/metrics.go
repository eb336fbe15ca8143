// Package metrics holds the shared histogram buckets and the scan session
// instruments. Instruments are created through an OpenTelemetry meter provider
// which the API server exports in Prometheus format.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// SessionBuckets are histogram buckets in seconds for human-paced scan sessions.
var SessionBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800} //nolint: gochecknoglobals

// NewMeterProvider returns a meter provider whose instruments are exported
// through reg.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// Sessions records the lifecycle of scan sessions. A nil *Sessions is valid and
// records nothing.
type Sessions struct {
	started     metric.Int64Counter
	rejected    metric.Int64Counter
	completed   metric.Int64Counter
	active      metric.Int64UpDownCounter
	duration    metric.Float64Histogram
	materialize metric.Float64Histogram
}

// NewSessions creates the session instruments on mp.
func NewSessions(mp metric.MeterProvider) (*Sessions, error) {
	m := mp.Meter("docscan/session")

	var (
		s   Sessions
		err error
	)
	if s.started, err = m.Int64Counter("docscan.sessions.started",
		metric.WithDescription("Scan sessions admitted")); err != nil {
		return nil, fmt.Errorf("could not create counter: %w", err)
	}
	if s.rejected, err = m.Int64Counter("docscan.sessions.rejected",
		metric.WithDescription("Scan requests rejected before admission")); err != nil {
		return nil, fmt.Errorf("could not create counter: %w", err)
	}
	if s.completed, err = m.Int64Counter("docscan.sessions.completed",
		metric.WithDescription("Scan sessions resolved, by outcome")); err != nil {
		return nil, fmt.Errorf("could not create counter: %w", err)
	}
	if s.active, err = m.Int64UpDownCounter("docscan.sessions.active",
		metric.WithDescription("Scan sessions currently in flight")); err != nil {
		return nil, fmt.Errorf("could not create gauge: %w", err)
	}
	if s.duration, err = m.Float64Histogram("docscan.sessions.duration",
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(SessionBuckets...)); err != nil {
		return nil, fmt.Errorf("could not create histogram: %w", err)
	}
	if s.materialize, err = m.Float64Histogram("docscan.sanitize.duration",
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...)); err != nil {
		return nil, fmt.Errorf("could not create histogram: %w", err)
	}

	return &s, nil
}

// Started records an admitted session.
func (s *Sessions) Started(ctx context.Context) {
	if s == nil {
		return
	}
	s.started.Add(ctx, 1)
	s.active.Add(ctx, 1)
}

// Rejected records a request rejected with reason.
func (s *Sessions) Rejected(ctx context.Context, reason string) {
	if s == nil {
		return
	}
	s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Completed records a resolved session with its outcome and total duration.
func (s *Sessions) Completed(ctx context.Context, outcome string, d time.Duration) {
	if s == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.completed.Add(ctx, 1, attrs)
	s.active.Add(ctx, -1)
	s.duration.Record(ctx, d.Seconds(), attrs)
}

// Sanitized records how long result materialisation took.
func (s *Sessions) Sanitized(ctx context.Context, responseType string, d time.Duration) {
	if s == nil {
		return
	}
	s.materialize.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("responseType", responseType)))
}
