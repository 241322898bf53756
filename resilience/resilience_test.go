package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/vidscribe/errors"
)

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "ffmpeg", MaxConcurrent: 2, MaxWait: time.Second})

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent calls, saw %d", peak.Load())
	}
	if b.InUse() != 0 || b.Available() != 2 {
		t.Errorf("expected all slots free, in use %d", b.InUse())
	}
}

func TestBulkhead_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		maxWait time.Duration
		ctx     func() (context.Context, context.CancelFunc)
		want    error
	}{
		{"no wait", 0, func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }, ErrBulkheadFull},
		{"wait timeout", 20 * time.Millisecond, func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }, ErrBulkheadTimeout},
		{"context done", time.Minute, func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}, context.DeadlineExceeded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rejected atomic.Int32
			b := NewBulkhead(BulkheadConfig{
				Name:          "test",
				MaxConcurrent: 1,
				MaxWait:       tc.maxWait,
				OnReject:      func(string, error) { rejected.Add(1) },
			})

			started, release := make(chan struct{}), make(chan struct{})
			go func() {
				_ = b.Execute(context.Background(), func() error {
					close(started)
					<-release
					return nil
				})
			}()
			<-started
			defer close(release)

			ctx, cancel := tc.ctx()
			defer cancel()
			err := b.Execute(ctx, func() error { return nil })
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if rejected.Load() != 1 {
				t.Errorf("expected OnReject once, got %d", rejected.Load())
			}
		})
	}
}

func TestBulkhead_Defaults(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "x"})
	if b.MaxConcurrent() != 10 || b.Name() != "x" {
		t.Errorf("unexpected bulkhead %d %q", b.MaxConcurrent(), b.Name())
	}
}

func newTestBreaker(maxFailures int) (*CircuitBreaker, *time.Time, *[]string) {
	now := time.Unix(0, 0)
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "whisper",
		MaxFailures: maxFailures,
		Timeout:     time.Minute,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.now = func() time.Time { return now }
	return cb, &now, &transitions
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	cb, now, transitions := newTestBreaker(2)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("open breaker must not call fn")
	}

	*now = now.Add(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed, got %s", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(*transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, *transitions)
	}
	for i := range want {
		if (*transitions)[i] != want[i] {
			t.Errorf("transition %d: want %s, got %s", i, want[i], (*transitions)[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now, _ := newTestBreaker(1)
	_ = cb.Execute(func() error { return errors.New("down") })

	*now = now.Add(time.Minute)
	_ = cb.Execute(func() error { return errors.New("still down") })

	if cb.State() != StateOpen {
		t.Fatalf("expected open after failed probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _, _ := newTestBreaker(3)
	_ = cb.Execute(func() error { return errors.New("x") })
	_ = cb.Execute(func() error { return errors.New("x") })
	_ = cb.Execute(func() error { return nil })

	if cb.Failures() != 0 {
		t.Errorf("expected failures reset, got %d", cb.Failures())
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("expected closed after reset")
	}
}

func TestRetry(t *testing.T) {
	fast := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	transient := errors.New("connection reset")

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"first try", []error{nil}, 1, nil},
		{"recovers", []error{transient, transient, nil}, 3, nil},
		{"exhausted", []error{transient, transient, transient, nil}, 3, transient},
		{"final app error", []error{apperrors.InvalidInput("audio", "empty")}, 1, nil},
		{"open circuit", []error{ErrCircuitOpen}, 1, ErrCircuitOpen},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			out, err := Retry(context.Background(), fast, func() (string, error) {
				e := tc.errs[calls]
				calls++
				if e != nil {
					return "", e
				}
				return "ok", nil
			})
			if calls != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, calls)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.errs[calls-1] == nil && out != "ok" {
				t.Errorf("expected ok, got %q (%v)", out, err)
			}
		})
	}
}

func TestRetry_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Hour,
		OnRetry:        func(int, error, time.Duration) { cancel() },
	}

	err := RetryFunc(ctx, cfg, func() error { return errors.New("fail") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("eof"), true},
		{context.Canceled, false},
		{apperrors.ConnectionFailed("whisper"), true},
		{apperrors.InvalidInput("f", "r"), false},
	}
	for _, tc := range tests {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffFactor: 10}
	if got := backoff(1, cfg); got != time.Second {
		t.Errorf("attempt 1: expected 1s, got %v", got)
	}
	if got := backoff(4, cfg); got != 3*time.Second {
		t.Errorf("attempt 4: expected cap 3s, got %v", got)
	}
}

func TestRateLimiter_TokenBucket(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})
	rl.now = func() time.Time { return now }
	rl.last = now

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected burst of 2")
	}
	if rl.Allow() {
		t.Fatal("expected bucket empty")
	}
	now = now.Add(time.Second)
	if !rl.Allow() {
		t.Fatal("expected refill after one second")
	}
}

func TestKeyedRateLimiter(t *testing.T) {
	k := NewKeyedRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})

	if !k.Allow("10.0.0.1") {
		t.Fatal("first request must pass")
	}
	if k.Allow("10.0.0.1") {
		t.Error("second request from same key must be limited")
	}
	if !k.Allow("10.0.0.2") {
		t.Error("other keys have their own bucket")
	}
	if k.Len() != 2 {
		t.Errorf("expected 2 buckets, got %d", k.Len())
	}
	if n := k.Prune(); n != 0 {
		t.Errorf("expected no bucket pruned, got %d", n)
	}
}
