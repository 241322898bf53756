package pipeline

import (
	"fmt"
	"time"
)

// DefaultSweepAge is how old a leftover workspace artifact must be before
// the startup sweep removes it.
const DefaultSweepAge = time.Hour

// Config configures run execution.
type Config struct {
	// Topic is the broadcast group progress is published to.
	Topic string `yaml:"topic" mapstructure:"topic" validate:"required"`
	// Workers is the number of runs executed concurrently.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
	// QueueSize is the number of submitted runs that may wait for a worker.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=0"`
	// StageTimeout bounds each stage. Zero disables it.
	StageTimeout time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout" validate:"gte=0"`
	// WorkspaceDir holds temporary run artifacts.
	WorkspaceDir string `yaml:"workspace_dir" mapstructure:"workspace_dir" validate:"required"`
	// SweepAge is the minimum age of artifacts removed at startup. Zero
	// disables the sweep.
	SweepAge time.Duration `yaml:"sweep_age" mapstructure:"sweep_age" validate:"gte=0"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.WorkspaceDir == "" {
		c.WorkspaceDir = "/tmp/vidscribe/workspace"
	}
}

// Validate checks ranges the struct tags cannot express.
func (c *Config) Validate() error {
	if c.StageTimeout < 0 {
		return fmt.Errorf("pipeline.stage_timeout must not be negative")
	}
	if c.SweepAge < 0 {
		return fmt.Errorf("pipeline.sweep_age must not be negative")
	}
	return nil
}
