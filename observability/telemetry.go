package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
)

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// Telemetry owns the tracer and meter providers as a lifecycle component.
// Its Metrics are usable before Start: instruments created on the global
// meter are rebound once the SDK provider is installed.
type Telemetry struct {
	cfg         Config
	service     string
	version     string
	environment string

	metrics *Metrics

	mu      sync.Mutex
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	running bool
}

// NewTelemetry creates the telemetry component and its metric instruments.
func NewTelemetry(cfg Config, service, version, environment string) (*Telemetry, error) {
	metrics, err := NewMetrics(Meter())
	if err != nil {
		return nil, err
	}
	return &Telemetry{
		cfg:         cfg,
		service:     service,
		version:     version,
		environment: environment,
		metrics:     metrics,
	}, nil
}

// Metrics returns the shared instruments.
func (t *Telemetry) Metrics() *Metrics { return t.metrics }

func (t *Telemetry) Name() string { return "telemetry" }

// Start installs the OTLP exporters when enabled. Disabled telemetry keeps
// the no-op globals.
func (t *Telemetry) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Enabled {
		logger.Debug("Telemetry disabled")
		return nil
	}

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    t.service,
		ServiceVersion: t.version,
		Environment:    t.environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		SampleRate:     t.cfg.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    t.service,
		ServiceVersion: t.version,
		Environment:    t.environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		Interval:       t.cfg.MetricInterval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("init meter: %w", err)
	}

	t.tracer, t.meter, t.running = tp, mp, true
	return nil
}

// Stop flushes and shuts down both providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false
	return errors.Join(t.tracer.Shutdown(ctx), t.meter.Shutdown(ctx))
}

func (t *Telemetry) Health(_ context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	if !t.cfg.Enabled {
		h.Message = "disabled"
	} else if !t.running {
		h.Status = component.StatusDegraded
		h.Message = "exporters not running"
	}
	return h
}

func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp/http %s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
