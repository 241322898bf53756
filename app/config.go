package app

import (
	"fmt"

	"github.com/kbukum/vidscribe/config"
	"github.com/kbukum/vidscribe/live"
	"github.com/kbukum/vidscribe/media"
	"github.com/kbukum/vidscribe/observability"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/server"
	"github.com/kbukum/vidscribe/storage"
	"github.com/kbukum/vidscribe/transcription"
	"github.com/kbukum/vidscribe/validation"
)

// ServiceName is the default service name and config file stem.
const ServiceName = "vidscribe"

// DefaultArchivePrefix is the key prefix archived transcripts are stored under.
const DefaultArchivePrefix = "transcripts"

// ArchiveConfig controls the upload_to_s3 step.
type ArchiveConfig struct {
	// Enabled uploads each transcript to the storage section's backend.
	// Disabled, the step is marked skipped.
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Prefix  string `yaml:"prefix" mapstructure:"prefix"`

	// EncryptionKey, when set, seals transcripts before upload.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	Algorithm     string `yaml:"algorithm" mapstructure:"algorithm" validate:"omitempty,oneof=aes-256-gcm chacha20-poly1305"`
}

// Config is the vidscribe service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Live          live.Config          `yaml:"live" mapstructure:"live"`
	Pipeline      pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`

	// Storage is the archive backend used when Archive is enabled.
	Storage storage.Config `yaml:"storage" mapstructure:"storage"`
	Archive ArchiveConfig  `yaml:"archive" mapstructure:"archive"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Live.ApplyDefaults(c.Pipeline.Topic)
	c.Media.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Storage.ApplyDefaults()
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = DefaultArchivePrefix
	}
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags and each section's own rules.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}

	checks := []struct {
		section string
		fn      func() error
	}{
		{"server", c.Server.Validate},
		{"live", c.Live.Validate},
		{"pipeline", c.Pipeline.Validate},
		{"media", c.Media.Validate},
		{"transcription", c.Transcription.Validate},
		{"observability", c.Observability.Validate},
	}
	if c.Archive.Enabled {
		checks = append(checks, struct {
			section string
			fn      func() error
		}{"storage", c.Storage.Validate})
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.section, err)
		}
	}
	if c.Live.Topic != c.Pipeline.Topic {
		return fmt.Errorf("live.topic %q must match pipeline.topic %q", c.Live.Topic, c.Pipeline.Topic)
	}
	return nil
}
