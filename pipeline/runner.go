package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/observability"
	"github.com/kbukum/vidscribe/storage"
	"github.com/kbukum/vidscribe/util"
)

// Run outcomes recorded on spans and metrics.
const (
	runCompleted = "completed"
	runFailed    = "failed"
)

// FailureMessage is the text reported to subscribers and HTTP clients when
// processing filename failed with err.
func FailureMessage(filename string, err error) string {
	return fmt.Sprintf("Processing failed for %s: %s", filename, apperrors.Describe(err))
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTrailingSteps replaces the default MarkSkipped hook.
func WithTrailingSteps(t TrailingSteps) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.trailing = t
		}
	}
}

// WithStageTimeout bounds each stage. Zero disables the bound.
func WithStageTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.stageTimeout = d
		}
	}
}

// WithRunnerMetrics records run and stage metrics.
func WithRunnerMetrics(m *observability.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(l *logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// Runner executes the processing stages of one upload at a time per call.
// A Runner is safe for concurrent use; each Run has its own workspace.
type Runner struct {
	store        storage.Storage
	extractor    AudioExtractor
	transcriber  Transcriber
	publisher    Publisher
	trailing     TrailingSteps
	stageTimeout time.Duration
	metrics      *observability.Metrics
	log          *logger.Logger
}

// NewRunner creates a runner. store holds the run workspace and must expose
// local paths.
func NewRunner(store storage.Storage, extractor AudioExtractor, transcriber Transcriber, publisher Publisher, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:       store,
		extractor:   extractor,
		transcriber: transcriber,
		publisher:   publisher,
		trailing:    MarkSkipped{},
		log:         logger.WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes up and blocks until the run ends. It publishes progress for
// each stage and exactly one terminal outcome: the trailing completed
// messages on success or a single error message on failure. Temporary
// artifacts are gone when Run returns. Run closes up.Body.
func (r *Runner) Run(ctx context.Context, up Upload) (*Result, error) {
	x := &run{
		Runner:   r,
		id:       uuid.NewString(),
		filename: up.Filename,
	}
	x.log = r.log.WithFields(logger.Fields(
		logger.FieldRunID, x.id,
		logger.FieldFilename, x.filename,
	))

	ctx, span := observability.StartSpan(ctx, observability.SpanRun, trace.WithAttributes(
		attribute.String(observability.AttrRunID, x.id),
		attribute.String(observability.AttrFilename, x.filename),
	))
	start := time.Now()
	r.metrics.RunStarted(ctx)
	x.log.Info("Run started", logger.Fields("size", util.FormatSize(up.Size)))

	ws, wsErr := NewWorkspace(r.store)
	if ws != nil {
		defer func() {
			if err := ws.Release(context.WithoutCancel(ctx)); err != nil {
				x.log.Warn("Workspace release failed", logger.ErrorFields("release", err))
			}
		}()
	}

	var (
		res *Result
		err error
	)
	if wsErr != nil {
		up.closeBody()
		err = x.fail(ctx, StageUploadVideo, wsErr)
	} else {
		res, err = x.execute(ctx, ws, up)
	}

	status := runCompleted
	if err != nil {
		status = runFailed
	}
	elapsed := time.Since(start)
	r.metrics.RunFinished(ctx, status, elapsed)
	observability.EndSpan(span, status, err)
	x.log.Info("Run finished", logger.Fields(
		logger.FieldStatus, status,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return res, err
}

// run holds the state of one Run call.
type run struct {
	*Runner
	id       string
	filename string
	log      *logger.Logger
}

func (x *run) execute(ctx context.Context, ws *Workspace, up Upload) (*Result, error) {
	base := util.SanitizeFilename(up.Filename)
	videoKey := fmt.Sprintf("%s_%s", x.id, base)
	audioKey := x.id + ".wav"

	var videoPath string
	err := x.stage(ctx, StageUploadVideo,
		fmt.Sprintf("Uploading video: %s...", x.filename),
		"Video uploaded successfully.",
		func(ctx context.Context) error {
			defer up.closeBody()
			p, err := ws.Persist(ctx, videoKey, up.Body)
			videoPath = p
			return err
		})
	if err != nil {
		return nil, err
	}

	var audioPath string
	err = x.stage(ctx, StageExtractAudio,
		"Starting audio extraction...",
		"Audio extracted.",
		func(ctx context.Context) error {
			p, err := ws.Reserve(audioKey)
			if err != nil {
				return err
			}
			audioPath = p
			return x.extractor.ExtractAudio(ctx, videoPath, audioPath)
		})
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: x.id, Filename: x.filename}
	err = x.stage(ctx, StageGetTranscript,
		"Generating transcript...",
		"Transcript generated.",
		func(ctx context.Context) error {
			t, err := x.transcriber.Transcribe(ctx, audioPath, x.filename)
			res.Transcript = t
			return err
		})
	if err != nil {
		return nil, err
	}

	for _, step := range []StageID{StageSummarizeTranscript, StageUploadToS3} {
		var text string
		err := x.call(ctx, step, func(ctx context.Context) error {
			t, err := x.trailing.Complete(ctx, step, res)
			text = t
			return err
		})
		if err != nil {
			return nil, x.fail(ctx, step, err)
		}
		x.publish(ctx, ProgressMessage(x.id, step, StatusCompleted, text, 100))
	}
	return res, nil
}

// stage publishes in_progress, runs fn and publishes completed, or the
// run's error message when fn fails.
func (x *run) stage(ctx context.Context, step StageID, startText, doneText string, fn func(context.Context) error) error {
	cp := checkpoints[step]
	x.publish(ctx, ProgressMessage(x.id, step, StatusInProgress, startText, cp.start))
	if err := x.call(ctx, step, fn); err != nil {
		return x.fail(ctx, step, err)
	}
	x.publish(ctx, ProgressMessage(x.id, step, StatusCompleted, doneText, cp.done))
	return nil
}

// call runs fn under the stage span and timeout. A panic in fn becomes its error.
func (x *run) call(ctx context.Context, step StageID, fn func(context.Context) error) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanStage, trace.WithAttributes(
		attribute.String(observability.AttrRunID, x.id),
		attribute.String(observability.AttrStep, string(step)),
	))
	if x.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.stageTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			x.log.Error("Stage panicked", logger.Fields(
				logger.FieldStep, string(step),
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			))
		}
		status := runCompleted
		if err != nil {
			status = runFailed
		}
		elapsed := time.Since(start)
		x.log.Debug("Stage finished", logger.DurationFields(string(step), elapsed))
		x.metrics.RecordStage(ctx, string(step), status, elapsed)
		observability.EndSpan(span, status, err)
	}()

	err = fn(ctx)
	if err != nil && x.stageTimeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = apperrors.Timeout(string(step)).WithCause(err)
	}
	return err
}

// fail publishes the run's single error message and returns the stage failure.
func (x *run) fail(ctx context.Context, step StageID, cause error) error {
	appErr := apperrors.StageFailed(string(step), cause)
	text := FailureMessage(x.filename, appErr)

	x.metrics.RecordError(ctx, string(apperrors.ErrCodeStageFailed), "pipeline")
	x.log.Error("Stage failed", logger.Fields(
		logger.FieldStep, string(step),
		logger.FieldError, apperrors.Describe(appErr),
	))
	x.publish(ctx, ErrorMessage(x.id, step, text))
	return appErr
}

func (x *run) publish(ctx context.Context, msg Message) {
	x.log.Debug("Progress", logger.Fields(
		logger.FieldStep, string(msg.Step),
		logger.FieldStatus, string(msg.Status),
		"overall_progress", msg.Progress(),
	))
	x.publisher.Publish(ctx, msg)
}
