package media

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/process"
	"github.com/kbukum/vidscribe/resilience"
)

// Extractor implements pipeline.AudioExtractor on top of ffmpeg.
type Extractor struct {
	cfg    Config
	runner process.Runner
	log    *logger.Logger
}

// NewExtractor creates an extractor. A nil runner executes on the host with
// cfg.Process limits.
func NewExtractor(cfg Config, runner process.Runner) *Extractor {
	cfg.ApplyDefaults()
	if runner == nil {
		runner = process.NewExec(cfg.Process)
	}
	return &Extractor{
		cfg:    cfg,
		runner: runner,
		log:    logger.WithComponent("media"),
	}
}

// HasAudio reports whether path contains at least one audio stream.
func (e *Extractor) HasAudio(ctx context.Context, path string) (bool, error) {
	res, err := e.runner.Run(ctx, process.Command{
		Binary: e.cfg.FFprobePath,
		Args: []string{
			"-v", "error",
			"-select_streams", "a",
			"-show_entries", "stream=index",
			"-of", "csv=p=0",
			path,
		},
	})
	if err != nil {
		return false, e.toolError(e.cfg.FFprobePath, res, err)
	}
	return strings.TrimSpace(string(res.Stdout)) != "", nil
}

// ExtractAudio writes the audio track of videoPath to audioPath.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	if !e.cfg.SkipProbe {
		ok, err := e.HasAudio(ctx, videoPath)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NoAudioTrack(filepath.Base(videoPath))
		}
	}

	cmd := process.Command{
		Binary: e.cfg.FFmpegPath,
		Args: []string{
			"-y",
			"-i", videoPath,
			"-vn",
			"-ac", strconv.Itoa(e.cfg.Channels),
			"-ar", strconv.Itoa(e.cfg.SampleRate),
			"-f", e.cfg.Format,
			audioPath,
		},
	}
	res, err := e.runner.Run(ctx, cmd)
	if err != nil {
		return e.toolError(e.cfg.FFmpegPath, res, err)
	}

	fields := logger.Fields("input", filepath.Base(videoPath), "output", filepath.Base(audioPath))
	if res != nil {
		fields[logger.FieldDuration] = res.Duration.Milliseconds()
	}
	e.log.Debug("Audio extracted", fields)
	return nil
}

// toolError classifies a failed tool invocation.
func (e *Extractor) toolError(tool string, res *process.Result, err error) error {
	switch {
	case errors.Is(err, process.ErrNotFound):
		return apperrors.ToolingUnavailable(filepath.Base(tool), err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable("audio extractor").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout(filepath.Base(tool)).WithCause(err)
	}

	detail := res.StderrTail(3)
	if detail == "" {
		detail = err.Error()
	}
	return apperrors.ExtractionFailed(detail, err)
}

// Check verifies that both tools can be executed.
func (e *Extractor) Check(ctx context.Context) error {
	var errs []error
	for _, tool := range []string{e.cfg.FFmpegPath, e.cfg.FFprobePath} {
		if _, err := e.runner.Run(ctx, process.Command{Binary: tool, Args: []string{"-version"}}); err != nil {
			errs = append(errs, e.toolError(tool, nil, err))
		}
	}
	return errors.Join(errs...)
}
