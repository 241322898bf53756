package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
)

func newTestServer(t *testing.T, checker func(context.Context) []component.Health) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.NewNop())
	s.ApplyDefaults("vidscribe", checker)
	return s
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8000 || cfg.MaxBodySize != "512MB" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []Config{
		{Port: 70000},
		{ReadTimeout: -1},
		{WriteTimeout: -1},
		{IdleTimeout: -1},
	}
	for _, c := range tests {
		if err := c.Validate(); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []component.HealthStatus
		wantStatus string
		wantCode   int
	}{
		{"all healthy", []component.HealthStatus{component.StatusHealthy}, "healthy", http.StatusOK},
		{"degraded", []component.HealthStatus{component.StatusHealthy, component.StatusDegraded}, "degraded", http.StatusOK},
		{"unhealthy", []component.HealthStatus{component.StatusDegraded, component.StatusUnhealthy}, "unhealthy", http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, func(context.Context) []component.Health {
				var hs []component.Health
				for _, st := range tc.statuses {
					hs = append(hs, component.Health{Name: "c", Status: st})
				}
				return hs
			})

			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			if rr.Code != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			var body map[string]any
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			if body["status"] != tc.wantStatus || body["service"] != "vidscribe" {
				t.Errorf("unexpected body %v", body)
			}
		})
	}
}

func TestDefaultEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/info", "/metrics", "/version"} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-Id") == "" {
			t.Errorf("%s: expected request ID from middleware", path)
		}
	}
}

func TestHandleMountsBesideGin(t *testing.T) {
	s := newTestServer(t, nil)
	s.Handle("/ws/progress/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws/progress/", http.NoBody))
	if rr.Code != http.StatusAccepted {
		t.Errorf("expected mounted handler, got %d", rr.Code)
	}
}

func TestComponentLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	s.GinEngine().POST("/api/upload-video/", func(c *gin.Context) { c.Status(http.StatusOK) })
	sc := NewComponent(s)
	sc.TrackMount("GET", "/ws/progress/", "live.ServeWebSocket")
	ctx := context.Background()

	if sc.Health(ctx).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy before start")
	}
	if err := sc.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sc.Stop(ctx)

	if sc.Health(ctx).Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", sc.Health(ctx))
	}

	resp, err := http.Get("http://" + s.Addr() + "/version")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	routes := sc.Routes()
	if len(routes) == 0 || routes[0].Path != "/api/upload-video/" {
		t.Errorf("expected API routes first, got %+v", routes)
	}
	last := routes[len(routes)-1]
	if !systemPaths[last.Path] {
		t.Errorf("expected system route last, got %+v", last)
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"github.com/kbukum/vidscribe/api.(*Handler).UploadVideo-fm", "Handler.UploadVideo"},
		{"github.com/kbukum/vidscribe/server/endpoint.Health.func1", "health"},
		{"github.com/kbukum/vidscribe/server.TestComponentLifecycle.func1", "testcomponentlifecycle"},
	}
	for _, tc := range tests {
		if got := formatHandlerName(tc.in); got != tc.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
