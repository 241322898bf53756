package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Storage and implements component.Component for lifecycle management.
type Component struct {
	name        string
	cfg         Config
	providerCfg any
	log         *logger.Logger

	mu      sync.RWMutex
	storage Storage
}

// NewComponent creates a storage component registered under name.
func NewComponent(name string, cfg Config, providerCfg any, log *logger.Logger) *Component {
	return &Component{
		name:        name,
		cfg:         cfg,
		providerCfg: providerCfg,
		log:         log.WithComponent(name),
	}
}

// Storage returns the underlying Storage, or nil if not started.
func (c *Component) Storage() Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage
}

func (c *Component) Name() string { return c.name }

// Start initializes the storage backend.
func (c *Component) Start(_ context.Context) error {
	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}

	c.mu.Lock()
	c.storage = s
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	c.storage = nil
	c.mu.Unlock()
	return nil
}

func (c *Component) Health(ctx context.Context) component.Health {
	s := c.Storage()
	if s == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "storage not initialized",
		}
	}

	if _, err := s.URL(ctx, ".health"); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health probe failed: %v", err),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

func (c *Component) Describe() component.Description {
	cfg := c.cfg
	cfg.ApplyDefaults()
	details := fmt.Sprintf("provider=%s", cfg.Provider)

	if bp, ok := c.providerCfg.(BucketDescriber); ok {
		if b := bp.GetBucket(); b != "" {
			details += fmt.Sprintf(" bucket=%s", b)
		}
	} else if cfg.Provider == ProviderS3 {
		details += fmt.Sprintf(" bucket=%s", cfg.Bucket)
	}

	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: details,
	}
}

// BucketDescriber is optionally implemented by provider configs that use a bucket.
type BucketDescriber interface {
	GetBucket() string
}
