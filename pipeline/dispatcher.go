package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/kbukum/vidscribe/component"
	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
)

// Default pool sizing.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 16
)

// Executor runs one upload to completion.
type Executor interface {
	Run(ctx context.Context, up Upload) (*Result, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, up Upload) (*Result, error)

func (f ExecutorFunc) Run(ctx context.Context, up Upload) (*Result, error) { return f(ctx, up) }

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkers sets the number of concurrent runs.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets how many submitted runs may wait for a worker.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.queueSize = n
		}
	}
}

type outcome struct {
	res *Result
	err error
}

type job struct {
	ctx    context.Context
	upload Upload
	done   chan outcome
}

var (
	_ component.Component   = (*Dispatcher)(nil)
	_ component.Describable = (*Dispatcher)(nil)
)

// Dispatcher executes runs on a fixed worker pool. A submitted run always
// finishes, even when the submitter stops waiting for it.
type Dispatcher struct {
	exec      Executor
	workers   int
	queueSize int
	log       *logger.Logger

	jobs     chan job
	quit     chan struct{}
	senders  sync.WaitGroup
	wg       sync.WaitGroup
	once     sync.Once
	inFlight atomic.Int64

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher creates a dispatcher for exec. Call Start before Submit.
func NewDispatcher(exec Executor, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		exec:      exec,
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		log:       logger.WithComponent("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.jobs = make(chan job, d.queueSize)
	d.quit = make(chan struct{})
	return d
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Start launches the workers.
func (d *Dispatcher) Start(_ context.Context) error {
	d.once.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker(i + 1)
		}
		d.mu.Lock()
		d.started = true
		d.mu.Unlock()
		d.log.Info("Dispatcher started", logger.Fields("workers", d.workers, "queue_size", d.queueSize))
	})
	return nil
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for j := range d.jobs {
		d.inFlight.Add(1)
		res, err := d.execute(j)
		d.inFlight.Add(-1)
		j.done <- outcome{res: res, err: err}
	}
	d.log.Debug("Worker stopped", logger.Fields("worker_id", id))
}

func (d *Dispatcher) execute(j job) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Error("Run panicked", logger.Fields(
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
				logger.FieldFilename, j.upload.Filename,
			))
			res, err = nil, apperrors.Internal(fmt.Errorf("run panicked: %v", p))
		}
	}()
	return d.exec.Run(j.ctx, j.upload)
}

// Submit queues up and waits for its result. The run is detached from
// ctx cancellation; if ctx ends first Submit returns ctx.Err() and the run
// still completes in the background. Submit takes ownership of up.Body and
// closes it when the run is not accepted.
func (d *Dispatcher) Submit(ctx context.Context, up Upload) (*Result, error) {
	j := job{
		ctx:    context.WithoutCancel(ctx),
		upload: up,
		done:   make(chan outcome, 1),
	}

	d.mu.RLock()
	if d.closed || !d.started {
		d.mu.RUnlock()
		up.closeBody()
		return nil, apperrors.ServiceUnavailable("processing queue")
	}
	d.senders.Add(1)
	d.mu.RUnlock()

	// jobs stays open until every sender has left this select.
	select {
	case d.jobs <- j:
		d.senders.Done()
	case <-d.quit:
		d.senders.Done()
		up.closeBody()
		return nil, apperrors.ServiceUnavailable("processing queue")
	case <-ctx.Done():
		d.senders.Done()
		up.closeBody()
		return nil, ctx.Err()
	}

	select {
	case out := <-j.done:
		return out.res, out.err
	case <-ctx.Done():
		d.log.Warn("Submitter gone, run continues", logger.Fields(logger.FieldFilename, up.Filename))
		return nil, ctx.Err()
	}
}

// Stop rejects new submissions and waits for queued and running jobs until
// ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.quit)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.senders.Wait()
		close(d.jobs)
		d.wg.Wait()
	}()

	select {
	case <-done:
		d.log.Info("Dispatcher drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher drain: %w", ctx.Err())
	}
}

// InFlight returns the number of runs currently executing.
func (d *Dispatcher) InFlight() int { return int(d.inFlight.Load()) }

// Queued returns the number of runs waiting for a worker.
func (d *Dispatcher) Queued() int { return len(d.jobs) }

func (d *Dispatcher) Health(_ context.Context) component.Health {
	d.mu.RLock()
	started, closed := d.started, d.closed
	d.mu.RUnlock()

	h := component.Health{
		Name:   d.Name(),
		Status: component.StatusHealthy,
		Details: map[string]any{
			"workers":   d.workers,
			"in_flight": d.InFlight(),
			"queued":    d.Queued(),
		},
	}
	switch {
	case closed:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	case !started:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case d.queueSize > 0 && d.Queued() >= d.queueSize:
		h.Status = component.StatusDegraded
		h.Message = "queue full"
	}
	return h
}

func (d *Dispatcher) Describe() component.Description {
	return component.Description{
		Name:    "Dispatcher",
		Type:    "workers",
		Details: fmt.Sprintf("workers=%d queue=%d", d.workers, d.queueSize),
	}
}
