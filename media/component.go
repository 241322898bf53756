package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/vidscribe/component"
	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component checks for ffmpeg at startup and reports it in health. Missing
// tools do not stop the service; uploads fail at extract_audio instead.
type Component struct {
	extractor *Extractor

	mu       sync.RWMutex
	checkErr error
	checked  bool
}

// NewComponent wraps extractor for lifecycle management.
func NewComponent(extractor *Extractor) *Component {
	return &Component{extractor: extractor}
}

// Extractor returns the wrapped extractor.
func (c *Component) Extractor() *Extractor { return c.extractor }

func (c *Component) Name() string { return "media" }

func (c *Component) Start(ctx context.Context) error {
	err := c.extractor.Check(ctx)

	c.mu.Lock()
	c.checkErr, c.checked = err, true
	c.mu.Unlock()

	if err != nil {
		c.extractor.log.Warn("Audio tooling unavailable", logger.Fields(
			logger.FieldError, apperrors.Describe(err),
		))
	}
	return nil
}

func (c *Component) Stop(_ context.Context) error { return nil }

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.checked:
		h.Status, h.Message = component.StatusDegraded, "not checked"
	case c.checkErr != nil:
		h.Status, h.Message = component.StatusDegraded, apperrors.Describe(c.checkErr)
	default:
		h.Message = "ffmpeg available"
	}
	return h
}

func (c *Component) Describe() component.Description {
	cfg := c.extractor.cfg
	return component.Description{
		Name:    "Audio Extractor",
		Type:    "tool",
		Details: fmt.Sprintf("%s %dHz ch=%d", cfg.FFmpegPath, cfg.SampleRate, cfg.Channels),
	}
}
