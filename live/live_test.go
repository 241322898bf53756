package live

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/vidscribe/notify"
	"github.com/kbukum/vidscribe/pipeline"
)

func testConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults(pipeline.DefaultTopic)
	return cfg
}

// fakeTransport records sent messages.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
	closed  int
}

func (f *fakeTransport) Kind() string { return "fake" }

func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, string(data))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeTransport) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults("progress_group")

	if cfg.Topic != "progress_group" {
		t.Errorf("expected topic progress_group, got %q", cfg.Topic)
	}
	if cfg.ConnectedMessage != "Connected to processing service." {
		t.Errorf("unexpected connected message %q", cfg.ConnectedMessage)
	}
	if cfg.KeepAlive != DefaultKeepAlive || cfg.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("unexpected durations %v %v", cfg.KeepAlive, cfg.WriteTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected error for missing topic")
	}
}

func TestOpen_SendsAcknowledgement(t *testing.T) {
	hub := notify.NewHub()
	ft := &fakeTransport{}

	sess, err := Open(hub, ft, testConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()

	if sess.State() != StateActive {
		t.Errorf("expected active, got %s", sess.State())
	}
	if hub.SubscriberCount(pipeline.DefaultTopic) != 1 {
		t.Errorf("expected subscriber registered")
	}

	got := ft.messages()
	if len(got) != 1 {
		t.Fatalf("expected ack only, got %v", got)
	}
	var msg pipeline.Message
	if err := json.Unmarshal([]byte(got[0]), &msg); err != nil {
		t.Fatalf("ack is not JSON: %v", err)
	}
	if msg.Type != pipeline.KindConnection || msg.Status != pipeline.StatusConnected {
		t.Errorf("unexpected ack %+v", msg)
	}
	if msg.Message != DefaultConnectedMessage {
		t.Errorf("unexpected ack text %q", msg.Message)
	}
}

func TestOpen_AckFailureUnsubscribes(t *testing.T) {
	hub := notify.NewHub()
	ft := &fakeTransport{sendErr: errors.New("broken pipe")}

	if _, err := Open(hub, ft, testConfig()); err == nil {
		t.Fatal("expected error")
	}
	if hub.TotalSubscribers() != 0 {
		t.Errorf("expected no subscribers, got %d", hub.TotalSubscribers())
	}
	if ft.closed == 0 {
		t.Error("expected transport closed")
	}
}

func TestOpen_StoppedHub(t *testing.T) {
	hub := notify.NewHub()
	hub.Stop()
	ft := &fakeTransport{}

	if _, err := Open(hub, ft, testConfig()); !errors.Is(err, notify.ErrHubStopped) {
		t.Fatalf("expected ErrHubStopped, got %v", err)
	}
	if ft.closed != 1 {
		t.Errorf("expected transport closed once, got %d", ft.closed)
	}
}

func TestSession_RunForwardsUntilCancel(t *testing.T) {
	hub := notify.NewHub()
	ft := &fakeTransport{}
	sess, err := Open(hub, ft, testConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	hub.Publish(pipeline.DefaultTopic, []byte(`{"n":1}`))
	hub.Publish(pipeline.DefaultTopic, []byte(`{"n":2}`))
	waitFor(t, func() bool { return len(ft.messages()) == 3 })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected nil on cancel, got %v", err)
	}
	if sess.State() != StateClosed {
		t.Errorf("expected closed, got %s", sess.State())
	}
	if hub.TotalSubscribers() != 0 {
		t.Error("expected subscriber removed after Run")
	}

	got := ft.messages()
	if got[1] != `{"n":1}` || got[2] != `{"n":2}` {
		t.Errorf("unexpected order %v", got)
	}
}

func TestSession_RunReportsEviction(t *testing.T) {
	hub := notify.NewHub(notify.WithQueueSize(1))
	ft := &fakeTransport{}
	sess, err := Open(hub, ft, testConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Fill and overflow the queue before Run drains it.
	hub.Publish(pipeline.DefaultTopic, []byte("a"))
	hub.Publish(pipeline.DefaultTopic, []byte("b"))

	if err := sess.Run(context.Background()); !errors.Is(err, ErrEvicted) {
		t.Fatalf("expected ErrEvicted, got %v", err)
	}
	got := ft.messages()
	if len(got) != 2 || got[1] != "a" {
		t.Errorf("expected ack and queued message, got %v", got)
	}
}

func TestSession_RunReportsShutdown(t *testing.T) {
	hub := notify.NewHub()
	sess, err := Open(hub, &fakeTransport{}, testConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	hub.Stop()

	if err := sess.Run(context.Background()); !errors.Is(err, ErrHubClosed) {
		t.Fatalf("expected ErrHubClosed, got %v", err)
	}
}

func TestSession_RunStopsOnSendError(t *testing.T) {
	hub := notify.NewHub()
	ft := &fakeTransport{}
	sess, err := Open(hub, ft, testConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	sendErr := errors.New("write: connection reset")
	ft.mu.Lock()
	ft.sendErr = sendErr
	ft.mu.Unlock()
	hub.Publish(pipeline.DefaultTopic, []byte("x"))

	if err := sess.Run(context.Background()); !errors.Is(err, sendErr) {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateConnecting: "connecting",
		StateActive:     "active",
		StateClosed:     "closed",
		State(9):        "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d) = %q, want %q", s, s.String(), want)
		}
	}
}

func TestServeWebSocket(t *testing.T) {
	hub := notify.NewHub()
	h := NewHandler(hub, testConfig())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ack pipeline.Message
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != pipeline.KindConnection {
		t.Errorf("expected connection_status, got %q", ack.Type)
	}

	// Client messages are ignored.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, _ := pipeline.ProgressMessage("", pipeline.StageUploadVideo, pipeline.StatusInProgress, "Uploading video: a.mp4...", 10).Encode()
	hub.Publish(pipeline.DefaultTopic, data)

	var msg pipeline.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read progress: %v", err)
	}
	if msg.Step != pipeline.StageUploadVideo || msg.Progress() != 10 {
		t.Errorf("unexpected progress message %+v", msg)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.TotalSubscribers() == 0 })
}

func TestServeWebSocket_RejectsOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	h := NewHandler(notify.NewHub(), cfg)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}

	header.Set("Origin", "https://app.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("expected allowed origin to connect: %v", err)
	}
	conn.Close()
}

func TestServeSSE(t *testing.T) {
	hub := notify.NewHub()
	h := NewHandler(hub, testConfig())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeSSE))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}

	if ack := readData(); !strings.Contains(ack, `"connection_status"`) {
		t.Errorf("unexpected ack %q", ack)
	}

	waitFor(t, func() bool { return hub.SubscriberCount(pipeline.DefaultTopic) == 1 })
	hub.Publish(pipeline.DefaultTopic, []byte(`{"type":"progress_update"}`))
	if got := readData(); got != `{"type":"progress_update"}` {
		t.Errorf("unexpected event %q", got)
	}

	cancel()
	waitFor(t, func() bool { return hub.TotalSubscribers() == 0 })
}
