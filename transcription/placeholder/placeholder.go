// Package placeholder provides a transcription backend that returns fixed
// text naming the upload. It keeps the full pipeline runnable without a
// speech model.
package placeholder

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/vidscribe/transcription"
)

// ProviderName is the registered name of the placeholder backend.
const ProviderName = "placeholder"

const loremIpsum = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et " +
	"dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip " +
	"ex ea commodo consequat. Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore " +
	"eu fugiat nulla pariatur. Excepteur sint occaecat cupidatat non proident, sunt in culpa qui officia " +
	"deserunt mollit anim id est laborum."

func init() {
	transcription.RegisterFactory(ProviderName, func(transcription.Config) (transcription.Provider, error) {
		return New(), nil
	})
}

// Provider returns a dummy transcript.
type Provider struct{}

var _ transcription.Provider = (*Provider)(nil)

// New creates a placeholder provider.
func New() *Provider { return &Provider{} }

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) IsAvailable(_ context.Context) bool { return true }

// Transcribe checks that the audio file exists and returns the dummy text.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return nil, fmt.Errorf("placeholder: audio file: %w", err)
	}
	return &transcription.Response{Text: Text(req.Filename)}, nil
}

// Text returns the dummy transcript for filename.
func Text(filename string) string {
	return fmt.Sprintf("This is a dummy transcript for the video '%s'. The audio was successfully extracted. %s",
		filename, loremIpsum)
}
