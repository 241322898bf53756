package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/vidscribe/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter installs a periodic OTLP meter provider as the global provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("Meter initialized", logger.Fields(
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the instruments for pipeline runs and live-update fan-out.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	runTotal          metric.Int64Counter
	runDuration       metric.Float64Histogram
	runActive         metric.Int64UpDownCounter
	stageDuration     metric.Float64Histogram
	publishTotal      metric.Int64Counter
	subscribersActive metric.Int64UpDownCounter
	evictionTotal     metric.Int64Counter
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.runTotal, err = meter.Int64Counter("pipeline.run.total",
		metric.WithDescription("Pipeline runs by terminal status")); err != nil {
		return nil, fmt.Errorf("creating pipeline.run.total counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("pipeline.run.duration",
		metric.WithDescription("Duration of pipeline runs"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating pipeline.run.duration histogram: %w", err)
	}
	if m.runActive, err = meter.Int64UpDownCounter("pipeline.run.active",
		metric.WithDescription("Pipeline runs currently executing")); err != nil {
		return nil, fmt.Errorf("creating pipeline.run.active counter: %w", err)
	}
	if m.stageDuration, err = meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Duration of pipeline stages"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.duration histogram: %w", err)
	}
	if m.publishTotal, err = meter.Int64Counter("notify.publish.total",
		metric.WithDescription("Messages published by topic")); err != nil {
		return nil, fmt.Errorf("creating notify.publish.total counter: %w", err)
	}
	if m.subscribersActive, err = meter.Int64UpDownCounter("notify.subscribers.active",
		metric.WithDescription("Currently registered subscribers")); err != nil {
		return nil, fmt.Errorf("creating notify.subscribers.active counter: %w", err)
	}
	if m.evictionTotal, err = meter.Int64Counter("notify.eviction.total",
		metric.WithDescription("Subscribers evicted for a full queue")); err != nil {
		return nil, fmt.Errorf("creating notify.eviction.total counter: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Errors by type and component")); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}
	return &m, nil
}

// RunStarted increments the active run gauge.
func (m *Metrics) RunStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.runActive.Add(ctx, 1)
}

// RunFinished records a completed run with its terminal status.
func (m *Metrics) RunFinished(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// RecordStage records one stage execution.
func (m *Metrics) RecordStage(ctx context.Context, step, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	))
}

// RecordPublish counts one published message and its recipients.
func (m *Metrics) RecordPublish(ctx context.Context, topic string, recipients int) {
	if m == nil {
		return
	}
	m.publishTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.Bool("delivered", recipients > 0),
	))
}

// SubscriberDelta adjusts the active subscriber gauge by delta.
func (m *Metrics) SubscriberDelta(ctx context.Context, topic string, delta int64) {
	if m == nil {
		return
	}
	m.subscribersActive.Add(ctx, delta, metric.WithAttributes(attribute.String("topic", topic)))
}

// RecordEviction counts one evicted subscriber.
func (m *Metrics) RecordEviction(ctx context.Context, topic string) {
	if m == nil {
		return
	}
	m.evictionTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
