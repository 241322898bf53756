package media

import (
	"fmt"

	"github.com/kbukum/vidscribe/process"
)

// Defaults for audio extraction.
const (
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"
	DefaultSampleRate  = 16000
	DefaultChannels    = 1
	DefaultFormat      = "wav"
)

// Config configures the Extractor.
type Config struct {
	FFmpegPath  string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path" mapstructure:"ffprobe_path"`
	// SampleRate of the extracted audio in Hz.
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0"`
	// Channels of the extracted audio.
	Channels int `yaml:"channels" mapstructure:"channels" validate:"gte=0,lte=8"`
	// Format is the ffmpeg output muxer.
	Format string `yaml:"format" mapstructure:"format"`
	// SkipProbe extracts without checking for an audio stream first.
	SkipProbe bool `yaml:"skip_probe" mapstructure:"skip_probe"`
	// Process bounds the ffmpeg and ffprobe invocations.
	Process process.Config `yaml:"process" mapstructure:"process"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = DefaultFFmpegPath
	}
	if c.FFprobePath == "" {
		c.FFprobePath = DefaultFFprobePath
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Process.MaxConcurrent == 0 {
		c.Process.MaxConcurrent = 2
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.Channels < 0 {
		return fmt.Errorf("media: sample_rate and channels must not be negative")
	}
	if c.Process.MaxConcurrent < 0 {
		return fmt.Errorf("media: process.max_concurrent must not be negative")
	}
	return nil
}
