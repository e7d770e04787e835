package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Navigation outcomes recorded by RecordNavigation.
const (
	OutcomeCommitted = "committed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// MetricsRecorder records router metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNavigation records a settled transition.
	RecordNavigation(ctx context.Context, trigger, outcome string, duration time.Duration)

	// RecordHook records one lifecycle hook invocation.
	RecordHook(ctx context.Context, hook, component string, duration time.Duration, err error)

	// RecordRedirect records a guard redirect.
	RecordRedirect(ctx context.Context)
}

type otelMetrics struct {
	navigations    metric.Int64Counter
	navigationTime metric.Float64Histogram
	hookExecutions metric.Int64Counter
	hookLatency    metric.Float64Histogram
	hookErrors     metric.Int64Counter
	redirects      metric.Int64Counter
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	navigations, err := meter.Int64Counter("navgraph.navigations",
		metric.WithDescription("Number of settled navigations"),
	)
	if err != nil {
		return nil, err
	}

	navigationTime, err := meter.Float64Histogram("navgraph.navigation.latency_ms",
		metric.WithDescription("Navigation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	hookExecutions, err := meter.Int64Counter("navgraph.hook.executions",
		metric.WithDescription("Number of lifecycle hook invocations"),
	)
	if err != nil {
		return nil, err
	}

	hookLatency, err := meter.Float64Histogram("navgraph.hook.latency_ms",
		metric.WithDescription("Lifecycle hook latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	hookErrors, err := meter.Int64Counter("navgraph.hook.errors",
		metric.WithDescription("Number of lifecycle hook errors"),
	)
	if err != nil {
		return nil, err
	}

	redirects, err := meter.Int64Counter("navgraph.redirects",
		metric.WithDescription("Number of guard redirects"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		navigations:    navigations,
		navigationTime: navigationTime,
		hookExecutions: hookExecutions,
		hookLatency:    hookLatency,
		hookErrors:     hookErrors,
		redirects:      redirects,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If instrument creation fails it returns NoopMetrics.
//
// Configure the provider before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := newOtelMetrics(otel.Meter("navgraph"))
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordNavigation(ctx context.Context, trigger, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	)
	m.navigations.Add(ctx, 1, attrs)
	m.navigationTime.Record(ctx, ms(duration), attrs)
}

func (m *otelMetrics) RecordHook(ctx context.Context, hook, component string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("hook", hook),
		attribute.String("component", component),
	)
	m.hookExecutions.Add(ctx, 1, attrs)
	m.hookLatency.Record(ctx, ms(duration), attrs)
	if err != nil {
		m.hookErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordRedirect(ctx context.Context) {
	m.redirects.Add(ctx, 1)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
