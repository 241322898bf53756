package transcription

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/resilience"
)

// Transcriber serves the get_transcript stage from a Provider. Calls are
// retried on transient failures and short-circuited while the backend keeps
// failing.
type Transcriber struct {
	provider Provider
	cfg      Config
	breaker  *resilience.CircuitBreaker
	log      *logger.Logger
}

// NewTranscriber wraps p. cfg supplies language, model and resilience
// settings.
func NewTranscriber(p Provider, cfg Config) *Transcriber {
	cfg.ApplyDefaults()
	t := &Transcriber{
		provider: p,
		cfg:      cfg,
		log:      logger.WithComponent("transcription").WithFields(logger.Fields("provider", p.Name())),
	}

	cb := cfg.CircuitBreaker
	cb.OnStateChange = func(name string, from, to resilience.State) {
		t.log.Warn("Transcription circuit changed state", logger.Fields(
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		))
	}
	t.breaker = resilience.NewCircuitBreaker(cb)
	return t
}

// Provider returns the wrapped provider.
func (t *Transcriber) Provider() Provider { return t.provider }

// BreakerState returns the state of the circuit breaker.
func (t *Transcriber) BreakerState() resilience.State { return t.breaker.State() }

// Transcribe returns the transcript of audioPath. filename is the original
// upload name.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, filename string) (string, error) {
	req := Request{
		AudioPath: audioPath,
		Filename:  filename,
		Language:  t.cfg.Language,
		Model:     t.cfg.Model,
	}

	retry := t.cfg.Retry
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		t.log.Warn("Transcription failed, retrying", logger.Fields(
			logger.FieldFilename, filename,
			"attempt", attempt,
			"backoff", wait.String(),
			logger.FieldError, err.Error(),
		))
	}

	start := time.Now()
	resp, err := resilience.Retry(ctx, retry, func() (*Response, error) {
		var out *Response
		err := t.breaker.Execute(func() error {
			var err error
			out, err = t.provider.Transcribe(ctx, req)
			return err
		})
		return out, err
	})
	if err != nil {
		return "", t.classify(err)
	}

	t.log.Debug("Transcript ready", logger.Fields(
		logger.FieldFilename, filename,
		logger.FieldDuration, time.Since(start).Milliseconds(),
		"chars", len(resp.Text),
		"segments", len(resp.Segments),
	))
	return resp.Text, nil
}

func (t *Transcriber) classify(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.ServiceUnavailable(t.provider.Name() + " transcription").WithCause(err)
	}
	return apperrors.ExternalServiceError(t.provider.Name(), err)
}
