package live

import (
	"fmt"
	"time"

	"github.com/kbukum/vidscribe/notify"
)

// Defaults for live sessions.
const (
	DefaultConnectedMessage = "Connected to processing service."
	DefaultKeepAlive        = 30 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultReadLimit        = 4096
)

// Config configures live sessions.
type Config struct {
	// Topic is the hub topic sessions subscribe to.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// ConnectedMessage is the text of the connection acknowledgement.
	ConnectedMessage string `yaml:"connected_message" mapstructure:"connected_message"`
	// KeepAlive is the interval between pings or SSE comments.
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive" validate:"gte=0"`
	// WriteTimeout bounds a single write to the client.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	// ReadLimit caps the size of a discarded client message.
	ReadLimit int64 `yaml:"read_limit" mapstructure:"read_limit" validate:"gte=0"`
	// QueueSize is the per-subscriber hub queue capacity. A subscriber that
	// falls this far behind is evicted.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=0"`
	// AllowedOrigins lists origins accepted for WebSocket upgrades. Empty
	// accepts any origin.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ApplyDefaults fills in zero-valued fields. topic is used when Topic is empty.
func (c *Config) ApplyDefaults(topic string) {
	if c.Topic == "" {
		c.Topic = topic
	}
	if c.ConnectedMessage == "" {
		c.ConnectedMessage = DefaultConnectedMessage
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ReadLimit == 0 {
		c.ReadLimit = DefaultReadLimit
	}
	if c.QueueSize == 0 {
		c.QueueSize = notify.DefaultQueueSize
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("live.topic is required")
	}
	if c.KeepAlive < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("live: durations must not be negative")
	}
	return nil
}
