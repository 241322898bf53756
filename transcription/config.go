package transcription

import (
	"fmt"
	"time"

	"github.com/kbukum/vidscribe/resilience"
)

// Defaults for transcription.
const (
	DefaultProvider = "placeholder"
	DefaultTimeout  = 120 * time.Second
)

// Config configures the transcription backend.
type Config struct {
	// Provider selects the registered backend: "placeholder" or "whisper".
	Provider string `yaml:"provider" mapstructure:"provider"`
	// URL is the base URL of an HTTP backend.
	URL      string `yaml:"url" mapstructure:"url"`
	Model    string `yaml:"model" mapstructure:"model"`
	Language string `yaml:"language" mapstructure:"language"`
	// Timeout bounds one backend request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	Retry          resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = resilience.DefaultRetryConfig()
	}
	if c.CircuitBreaker.Name == "" {
		c.CircuitBreaker.Name = "transcription-" + c.Provider
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("transcription.provider is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("transcription.timeout must not be negative")
	}
	return nil
}
