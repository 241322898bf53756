package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/vidscribe/component"
	apperrors "github.com/kbukum/vidscribe/errors"
)

type execFunc func(ctx context.Context, up Upload) (*Result, error)

func (f execFunc) Run(ctx context.Context, up Upload) (*Result, error) { return f(ctx, up) }

func TestDispatcher_SubmitReturnsResult(t *testing.T) {
	d := NewDispatcher(execFunc(func(_ context.Context, up Upload) (*Result, error) {
		return &Result{Filename: up.Filename, Transcript: "ok"}, nil
	}), WithWorkers(2))
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop(ctx)

	res, err := d.Submit(ctx, Upload{Filename: "a.mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Filename != "a.mp4" || res.Transcript != "ok" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDispatcher_SubmitBeforeStart(t *testing.T) {
	d := NewDispatcher(execFunc(func(context.Context, Upload) (*Result, error) { return nil, nil }))
	_, err := d.Submit(context.Background(), Upload{})
	if !apperrors.HasCode(err, apperrors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

func TestDispatcher_RunOutlivesSubmitter(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	var runCtxErr atomic.Value

	d := NewDispatcher(execFunc(func(ctx context.Context, _ Upload) (*Result, error) {
		<-release
		if ctx.Err() != nil {
			runCtxErr.Store(ctx.Err())
		}
		finished.Store(true)
		return &Result{}, nil
	}), WithWorkers(1))
	_ = d.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := d.Submit(ctx, Upload{Filename: "a.mp4"})
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !finished.Load() {
		t.Error("run should finish after submitter left")
	}
	if v := runCtxErr.Load(); v != nil {
		t.Errorf("run context must not be canceled, got %v", v)
	}
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher(execFunc(func(context.Context, Upload) (*Result, error) {
		panic("bad run")
	}), WithWorkers(1))
	ctx := context.Background()
	_ = d.Start(ctx)
	defer d.Stop(ctx)

	_, err := d.Submit(ctx, Upload{})
	if !apperrors.HasCode(err, apperrors.ErrCodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}

	// The worker survived the panic.
	if _, err := d.Submit(ctx, Upload{}); !apperrors.HasCode(err, apperrors.ErrCodeInternal) {
		t.Fatalf("expected second submit to be served, got %v", err)
	}
}

func TestDispatcher_StopRejectsSubmit(t *testing.T) {
	d := NewDispatcher(execFunc(func(context.Context, Upload) (*Result, error) { return &Result{}, nil }))
	ctx := context.Background()
	_ = d.Start(ctx)

	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if _, err := d.Submit(ctx, Upload{}); err == nil {
		t.Fatal("expected Submit after Stop to fail")
	}
	if d.Health(ctx).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy after Stop")
	}
}

func TestDispatcher_Health(t *testing.T) {
	d := NewDispatcher(execFunc(func(context.Context, Upload) (*Result, error) { return &Result{}, nil }),
		WithWorkers(3), WithQueueSize(5))
	ctx := context.Background()

	if h := d.Health(ctx); h.Status != component.StatusUnhealthy || h.Message != "not started" {
		t.Errorf("unexpected health before start %+v", h)
	}
	_ = d.Start(ctx)
	defer d.Stop(ctx)

	h := d.Health(ctx)
	if h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
	if h.Details["workers"] != 3 {
		t.Errorf("expected workers=3, got %v", h.Details["workers"])
	}
	if d.Describe().Details != "workers=3 queue=5" {
		t.Errorf("unexpected description %q", d.Describe().Details)
	}
}

func TestDispatcher_StopHonorsDeadlineWithBlockedSubmitter(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	d := NewDispatcher(execFunc(func(context.Context, Upload) (*Result, error) {
		<-release
		return &Result{}, nil
	}), WithWorkers(1), WithQueueSize(0))
	_ = d.Start(context.Background())

	// The first run occupies the only worker; the second blocks in Submit.
	go func() { _, _ = d.Submit(context.Background(), Upload{Filename: "a.mp4"}) }()
	waitFor(t, func() bool { return d.InFlight() == 1 })

	body := &trackedBody{Reader: strings.NewReader("v")}
	errc := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background(), Upload{Filename: "b.mp4", Body: body})
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	stopped := make(chan error, 1)
	go func() { stopped <- d.Stop(ctx) }()

	select {
	case err := <-stopped:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected drain deadline error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop ignored its deadline")
	}

	select {
	case err := <-errc:
		if !apperrors.HasCode(err, apperrors.ErrCodeServiceUnavailable) {
			t.Errorf("expected blocked submit to be rejected, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Submit was not released by Stop")
	}
	if body.closed.Load() != 1 {
		t.Error("expected rejected upload body to be closed")
	}
}

func TestDispatcher_ClosesBodyOfRejectedRun(t *testing.T) {
	d := NewDispatcher(execFunc(func(context.Context, Upload) (*Result, error) { return &Result{}, nil }))
	body := &trackedBody{Reader: strings.NewReader("v")}
	if _, err := d.Submit(context.Background(), Upload{Body: body}); err == nil {
		t.Fatal("expected Submit before Start to fail")
	}
	if body.closed.Load() != 1 {
		t.Error("expected body closed")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
