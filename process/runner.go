package process

import (
	"context"
	"time"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/resilience"
)

// Runner executes commands. Tool wrappers depend on it so tests can swap in
// scripted output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) { return f(ctx, cmd) }

// Config configures an Exec runner.
type Config struct {
	// GracePeriod applies to commands that do not set their own.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
	// Timeout bounds each command. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// MaxConcurrent caps simultaneous commands. Zero means no cap.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// MaxWait is how long a command queues for a slot under MaxConcurrent.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait" validate:"gte=0"`
}

// Exec runs commands on the host, applying Config defaults.
type Exec struct {
	cfg      Config
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
}

var _ Runner = (*Exec)(nil)

// NewExec creates a host runner.
func NewExec(cfg Config) *Exec {
	e := &Exec{cfg: cfg, log: logger.WithComponent("process")}
	if cfg.MaxConcurrent > 0 {
		e.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "process",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
			OnReject: func(name string, err error) {
				e.log.Warn("Command rejected, too many running", logger.Fields(
					"bulkhead", name,
					logger.FieldError, err.Error(),
				))
			},
		})
	}
	return e
}

// Run executes cmd, waiting for a slot when a concurrency cap is set.
func (e *Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = e.cfg.GracePeriod
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	if e.bulkhead == nil {
		return e.run(ctx, cmd)
	}

	var (
		res *Result
		err error
	)
	if berr := e.bulkhead.Execute(ctx, func() error {
		res, err = e.run(ctx, cmd)
		return nil
	}); berr != nil {
		return nil, berr
	}
	return res, err
}

func (e *Exec) run(ctx context.Context, cmd Command) (*Result, error) {
	res, err := Run(ctx, cmd)
	fields := logger.Fields("command", cmd.Binary)
	if res != nil {
		fields[logger.FieldDuration] = res.Duration.Milliseconds()
		fields["exit_code"] = res.ExitCode
	}
	if err != nil {
		fields[logger.FieldError] = err.Error()
		e.log.Debug("Command failed", fields)
		return res, err
	}
	e.log.Debug("Command finished", fields)
	return res, nil
}
