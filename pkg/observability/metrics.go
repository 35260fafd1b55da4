package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// InitMetrics initializes the Prometheus metrics exporter.
// Returns the MeterProvider and an HTTP handler for /metrics endpoint.
func InitMetrics(_ MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	handler := promhttp.Handler()

	return provider, handler, nil
}

// ScoringMetrics are the instruments recorded around scoring and training.
// A nil *ScoringMetrics records nothing.
type ScoringMetrics struct {
	scored      metric.Int64Counter
	failures    metric.Int64Counter
	latency     metric.Float64Histogram
	fallbacks   metric.Int64Counter
	activations metric.Int64Counter
}

// NewScoringMetrics registers the scoring instruments on meter. A nil meter
// yields no-op instruments.
func NewScoringMetrics(meter metric.Meter) (*ScoringMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}
	m := &ScoringMetrics{}
	var err error
	if m.scored, err = meter.Int64Counter("risk_farms_scored_total",
		metric.WithDescription("Farm records scored, by risk category.")); err != nil {
		return nil, fmt.Errorf("register scored counter: %w", err)
	}
	if m.failures, err = meter.Int64Counter("risk_scoring_failures_total",
		metric.WithDescription("Scoring requests that returned an error.")); err != nil {
		return nil, fmt.Errorf("register failure counter: %w", err)
	}
	if m.latency, err = meter.Float64Histogram("risk_scoring_duration_seconds",
		metric.WithDescription("Time to score one farm record."),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("register latency histogram: %w", err)
	}
	if m.fallbacks, err = meter.Int64Counter("risk_calibration_fallbacks_total",
		metric.WithDescription("Training runs that fell back to raw probabilities.")); err != nil {
		return nil, fmt.Errorf("register fallback counter: %w", err)
	}
	if m.activations, err = meter.Int64Counter("risk_bundle_activations_total",
		metric.WithDescription("Bundles swapped into service.")); err != nil {
		return nil, fmt.Errorf("register activation counter: %w", err)
	}
	return m, nil
}

// RecordScore records one successful scoring call.
func (m *ScoringMetrics) RecordScore(ctx context.Context, category string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scored.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	m.latency.Record(ctx, elapsed.Seconds())
}

// RecordFailure records one failed scoring call.
func (m *ScoringMetrics) RecordFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordCalibrationFallback records a training run without a calibrator.
func (m *ScoringMetrics) RecordCalibrationFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1)
}

// RecordActivation records a bundle swap.
func (m *ScoringMetrics) RecordActivation(ctx context.Context) {
	if m == nil {
		return
	}
	m.activations.Add(ctx, 1)
}
