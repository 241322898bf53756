package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/vidscribe/component"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected default endpoint, got %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.MetricInterval != 15*time.Second {
		t.Errorf("expected 15s interval, got %v", cfg.MetricInterval)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{SampleRate: 0.5}, false},
		{"rate too high", Config{SampleRate: 1.5}, true},
		{"negative rate", Config{SampleRate: -0.1}, true},
		{"negative interval", Config{MetricInterval: -time.Second}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestMetricsRecorders(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	m.RunStarted(ctx)
	m.RecordStage(ctx, "extract_audio", "completed", 50*time.Millisecond)
	m.RunFinished(ctx, "completed", 100*time.Millisecond)
	m.RecordPublish(ctx, "progress_group", 2)
	m.SubscriberDelta(ctx, "progress_group", 1)
	m.RecordEviction(ctx, "progress_group")
	m.RecordError(ctx, "stage_failed", "pipeline")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RunStarted(ctx)
	m.RunFinished(ctx, "failed", time.Second)
	m.RecordStage(ctx, "upload_video", "failed", time.Second)
	m.RecordPublish(ctx, "t", 0)
	m.SubscriberDelta(ctx, "t", -1)
	m.RecordEviction(ctx, "t")
	m.RecordError(ctx, "x", "y")
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("vidscribe", "1.0.0", "test")
	if err != nil {
		t.Fatalf("newResource failed: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == AttrServiceName && kv.Value.AsString() == "vidscribe" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected service.name attribute, got %v", res.Attributes())
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanStage)
	SetSpanAttribute(ctx, AttrStep, "extract_audio")
	SetSpanAttribute(ctx, "ignored", struct{}{})
	EndSpan(span, "failed", fmt.Errorf("no audio"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanStage {
		t.Errorf("expected span %q, got %q", SpanStage, spans[0].Name)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
}

func TestTelemetryDisabledLifecycle(t *testing.T) {
	tel, err := NewTelemetry(Config{Enabled: false}, "vidscribe", "dev", "test")
	if err != nil {
		t.Fatalf("NewTelemetry failed: %v", err)
	}
	if tel.Metrics() == nil {
		t.Fatal("expected metrics before start")
	}

	ctx := context.Background()
	if err := tel.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	h := tel.Health(ctx)
	if h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("unexpected health %+v", h)
	}
	if tel.Describe().Details != "disabled" {
		t.Errorf("unexpected description %+v", tel.Describe())
	}
	if err := tel.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
