package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	// OTel meters and instruments
	meter             metric.Meter
	receivedCounter   metric.Int64ObservableCounter
	dispatchedCounter metric.Int64ObservableCounter
	duplicatesCounter metric.Int64ObservableCounter
	failuresCounter   metric.Int64ObservableCounter
	inFlightGauge     metric.Int64ObservableGauge
	trackedKeysGauge  metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"zipwhip-bridge",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.receivedCounter, err = oe.meter.Int64ObservableCounter(
		"bridge.webhooks.received",
		metric.WithDescription("Total webhook deliveries accepted for processing"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observe(func(s Snapshot) int64 { return s.Received })),
	)
	if err != nil {
		return fmt.Errorf("creating received counter: %w", err)
	}

	oe.dispatchedCounter, err = oe.meter.Int64ObservableCounter(
		"bridge.dispatches.total",
		metric.WithDescription("Total successful downstream dispatches"),
		metric.WithUnit("{dispatches}"),
		metric.WithInt64Callback(oe.observe(func(s Snapshot) int64 { return s.Dispatched })),
	)
	if err != nil {
		return fmt.Errorf("creating dispatched counter: %w", err)
	}

	oe.duplicatesCounter, err = oe.meter.Int64ObservableCounter(
		"bridge.webhooks.duplicates",
		metric.WithDescription("Total deliveries short-circuited by the dedupe store"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observe(func(s Snapshot) int64 { return s.Duplicates })),
	)
	if err != nil {
		return fmt.Errorf("creating duplicates counter: %w", err)
	}

	oe.failuresCounter, err = oe.meter.Int64ObservableCounter(
		"bridge.dispatches.failures",
		metric.WithDescription("Total deliveries whose dispatch ultimately failed"),
		metric.WithUnit("{dispatches}"),
		metric.WithInt64Callback(oe.observe(func(s Snapshot) int64 { return s.Failures })),
	)
	if err != nil {
		return fmt.Errorf("creating failures counter: %w", err)
	}

	oe.inFlightGauge, err = oe.meter.Int64ObservableGauge(
		"bridge.webhooks.in_flight",
		metric.WithDescription("Deliveries currently being processed"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observe(func(s Snapshot) int64 { return s.InFlight })),
	)
	if err != nil {
		return fmt.Errorf("creating in-flight gauge: %w", err)
	}

	oe.trackedKeysGauge, err = oe.meter.Int64ObservableGauge(
		"bridge.dedupe.tracked_keys",
		metric.WithDescription("Fingerprint pairs currently recorded in the dedupe store"),
		metric.WithUnit("{keys}"),
		metric.WithInt64Callback(oe.observe(func(s Snapshot) int64 { return s.TrackedKeys })),
	)
	if err != nil {
		return fmt.Errorf("creating tracked keys gauge: %w", err)
	}

	return nil
}

// observe builds a callback reporting one field of the collected snapshot
func (oe *OTelExporter) observe(field func(Snapshot) int64) metric.Int64Callback {
	return func(ctx context.Context, observer metric.Int64Observer) error {
		snapshot, err := oe.collector.Collect(ctx)
		if err != nil {
			return err
		}
		observer.Observe(field(snapshot))
		return nil
	}
}

// Handler returns the HTTP handler serving the Prometheus scrape endpoint
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.Handler()
}

// Shutdown flushes and stops the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if err := oe.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down meter provider: %w", err)
	}
	return nil
}
