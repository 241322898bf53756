package app

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/storage"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Pipeline.WorkspaceDir = t.TempDir()
	cfg.ApplyDefaults()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Name != ServiceName || cfg.Environment != "development" {
		t.Errorf("unexpected service defaults %+v", cfg.ServiceConfig)
	}
	if cfg.Pipeline.Topic != pipeline.DefaultTopic || cfg.Live.Topic != pipeline.DefaultTopic {
		t.Errorf("expected shared default topic, got %q / %q", cfg.Pipeline.Topic, cfg.Live.Topic)
	}
	if cfg.Server.Port != 8000 || cfg.Transcription.Provider != "placeholder" {
		t.Errorf("unexpected section defaults: port=%d provider=%q", cfg.Server.Port, cfg.Transcription.Provider)
	}
	if cfg.Archive.Prefix != DefaultArchivePrefix {
		t.Errorf("unexpected archive prefix %q", cfg.Archive.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"topic mismatch", func(c *Config) { c.Live.Topic = "other" }},
		{"negative workers tag", func(c *Config) { c.Pipeline.Workers = -1 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"archive to s3 without bucket", func(c *Config) {
			c.Archive.Enabled = true
			c.Storage.Provider = storage.ProviderS3
		}},
		{"bad sample rate", func(c *Config) { c.Observability.SampleRate = 2 }},
		{"unknown archive algorithm", func(c *Config) { c.Archive.Algorithm = "rot13" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBuildWithoutHTTP(t *testing.T) {
	cfg := testConfig(t)

	var mu sync.Mutex
	var seen []pipeline.Message
	svc, err := Build(cfg, logger.NewNop(), WithoutHTTP(), WithPublisher(pipeline.PublisherFunc(func(_ context.Context, msg pipeline.Message) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, msg)
	})))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if svc.Server != nil {
		t.Error("expected no server")
	}

	var names []string
	for _, c := range svc.Components() {
		names = append(names, c.Name())
	}
	want := []string{"telemetry", "notify-hub", "media", "transcription", "dispatcher"}
	if len(names) != len(want) {
		t.Fatalf("expected components %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected components %v, got %v", want, names)
		}
	}

	// Later stages depend on ffmpeg being installed; only the first message
	// is deterministic.
	_, _ = svc.Runner.Run(context.Background(), pipeline.Upload{Filename: "a.mp4", Size: 1, Body: http.NoBody})
	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[0].Step != pipeline.StageUploadVideo {
		t.Errorf("expected upload_video first, got %+v", seen)
	}
}

func TestBuildWithArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Enabled = true
	cfg.Archive.EncryptionKey = "archive-key"
	cfg.Archive.Algorithm = "chacha20-poly1305"
	cfg.Storage.Provider = storage.ProviderMemory

	svc, err := Build(cfg, logger.NewNop(), WithoutHTTP())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	found := false
	for _, c := range svc.Components() {
		if c.Name() == "archive-storage" {
			found = true
		}
	}
	if !found {
		t.Error("expected archive-storage component")
	}
}

func TestServiceLifecycle(t *testing.T) {
	cfg := testConfig(t)
	svc, err := Build(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	registry := component.NewRegistry()
	for _, c := range svc.Components() {
		if err := registry.Register(c); err != nil {
			t.Fatalf("register %s: %v", c.Name(), err)
		}
	}
	ctx := context.Background()
	if err := registry.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	defer registry.StopAll(ctx)

	resp, err := http.Get("http://" + svc.Server.Server().Addr() + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Service    string             `json:"service"`
		Components []component.Health `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Service != ServiceName {
		t.Errorf("expected service %q, got %q", ServiceName, body.Service)
	}
	if len(body.Components) != len(svc.Components()) {
		t.Errorf("expected %d component healths, got %d", len(svc.Components()), len(body.Components))
	}
}
