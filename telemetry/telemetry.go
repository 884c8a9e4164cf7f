// Package telemetry records dispatch and reconstruction counts with
// OpenTelemetry and exposes them to Prometheus.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	issueenvelope "github.com/blackwell-systems/issue-envelope"
)

const meterName = "github.com/blackwell-systems/issue-envelope"

// ShutdownFunc releases telemetry resources.
type ShutdownFunc func(ctx context.Context) error

// Setup installs a global meter provider backed by a Prometheus exporter.
// Returns a shutdown function that must be called on exit.
func Setup(ctx context.Context) (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Metrics implements issueenvelope.Observer and
// issueenvelope.ReconstructObserver.
type Metrics struct {
	dispatched    otelmetric.Int64Counter
	reconstructed otelmetric.Int64Counter
}

var (
	_ issueenvelope.Observer            = (*Metrics)(nil)
	_ issueenvelope.ReconstructObserver = (*Metrics)(nil)
)

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider())
}

// NewMetricsWithProvider creates the instruments on mp.
func NewMetricsWithProvider(mp otelmetric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.dispatched, err = meter.Int64Counter("issue_envelope_dispatched_total",
		otelmetric.WithDescription("Failures dispatched into error envelopes")); err != nil {
		return nil, fmt.Errorf("creating dispatched_total: %w", err)
	}
	if m.reconstructed, err = meter.Int64Counter("issue_envelope_reconstructed_total",
		otelmetric.WithDescription("Typed errors reconstructed from error envelopes")); err != nil {
		return nil, fmt.Errorf("creating reconstructed_total: %w", err)
	}
	return m, nil
}

// ObserveDispatch counts one dispatched envelope.
func (m *Metrics) ObserveDispatch(ctx context.Context, category issueenvelope.Category, status int) {
	m.dispatched.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("category", string(category)),
		attribute.String("status", strconv.Itoa(status)),
	))
}

// ObserveReconstruct counts one reconstructed error.
func (m *Metrics) ObserveReconstruct(ctx context.Context, e *issueenvelope.Error) {
	m.reconstructed.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("issue_type", e.ReportingIssueType().Name()),
		attribute.Bool("custom", e.IsCustom()),
	))
}
