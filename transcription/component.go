package transcription

import (
	"context"
	"fmt"

	"github.com/kbukum/vidscribe/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component reports backend availability in health checks.
type Component struct {
	t *Transcriber
}

// NewComponent wraps t for lifecycle management.
func NewComponent(t *Transcriber) *Component {
	return &Component{t: t}
}

func (c *Component) Name() string { return "transcription" }

func (c *Component) Start(_ context.Context) error { return nil }

func (c *Component) Stop(_ context.Context) error { return nil }

func (c *Component) Health(ctx context.Context) component.Health {
	p := c.t.Provider()
	h := component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Details: map[string]any{"provider": p.Name(), "circuit": c.t.BreakerState().String()},
	}
	if !p.IsAvailable(ctx) {
		h.Status = component.StatusDegraded
		h.Message = p.Name() + " unreachable"
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Transcription",
		Type:    "provider",
		Details: fmt.Sprintf("provider=%s", c.t.Provider().Name()),
	}
}
