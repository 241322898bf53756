// Package whisper implements transcription.Provider against a faster-whisper
// HTTP sidecar exposing POST /transcribe and GET /health.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/httpclient"
	"github.com/kbukum/vidscribe/transcription"
)

const (
	// ProviderName is the registered name of the Whisper backend.
	ProviderName = "whisper"

	defaultURL   = "http://localhost:8387"
	defaultModel = "base"
)

func init() {
	transcription.RegisterFactory(ProviderName, func(cfg transcription.Config) (transcription.Provider, error) {
		return NewProvider(Config{
			URL:      cfg.URL,
			Model:    cfg.Model,
			Language: cfg.Language,
			Timeout:  cfg.Timeout,
		}), nil
	})
}

// Config configures the Whisper provider.
type Config struct {
	URL      string
	Model    string
	Language string
	Timeout  time.Duration
}

// Provider calls the Whisper sidecar.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a Whisper provider.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = transcription.DefaultTimeout
	}
	// Timeout is positive, so New cannot fail validation.
	client, _ := httpclient.New(httpclient.Config{BaseURL: cfg.URL, Timeout: cfg.Timeout})
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks the sidecar health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil && resp.StatusCode == http.StatusOK
}

// Transcribe uploads the audio file and decodes the transcript.
//
// Transport failures and 5xx responses are retryable AppErrors; 4xx
// responses are final.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	audio, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: open audio: %w", err)
	}
	defer audio.Close()

	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	fields := map[string]string{"model": model}
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	if lang != "" {
		fields["language"] = lang
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName: "audio",
				FileName:  filepath.Base(req.AudioPath),
				Reader:    audio,
			}},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httpclient.ToAppError(ProviderName, err)
	}

	var out response
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, apperrors.ExternalServiceError(ProviderName, fmt.Errorf("decode response: %w", err))
	}
	return out.toResponse(), nil
}

type response struct {
	Text     string    `json:"text"`
	Segments []segment `json:"segments"`
	Language string    `json:"language"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r *response) toResponse() *transcription.Response {
	out := &transcription.Response{
		Text:     r.Text,
		Language: r.Language,
		Segments: make([]transcription.Segment, len(r.Segments)),
	}
	for i, s := range r.Segments {
		out.Segments[i] = transcription.Segment{Start: s.Start, End: s.End, Text: s.Text}
	}
	if n := len(r.Segments); n > 0 {
		out.Duration = r.Segments[n-1].End
	}
	return out
}
