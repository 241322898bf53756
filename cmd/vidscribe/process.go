package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kbukum/vidscribe/app"
	"github.com/kbukum/vidscribe/bootstrap"
	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Process one media file locally and print progress as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			// Progress owns stdout.
			cfg.Logging.Output = "stderr"

			a, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(io.Discard))
			if err != nil {
				return err
			}

			out := newLineWriter(cmd.OutOrStdout())
			svc, err := app.Build(cfg, a.Logger, app.WithoutHTTP(), app.WithPublisher(out))
			if err != nil {
				return err
			}
			if err := svc.Register(a); err != nil {
				return err
			}

			return a.RunTask(cmd.Context(), func(taskCtx context.Context) error {
				return processFile(taskCtx, svc.Dispatcher, args[0], out)
			})
		},
	}
}

func processFile(ctx context.Context, runs *pipeline.Dispatcher, path string, out *lineWriter) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if info.Size() == 0 {
		f.Close()
		return apperrors.InvalidInput("file", "file is empty")
	}

	name := filepath.Base(path)
	res, err := runs.Submit(ctx, pipeline.Upload{Filename: name, Size: info.Size(), Body: f})
	if err != nil {
		return &failureError{msg: pipeline.FailureMessage(name, err), err: err}
	}
	return out.write(res)
}

// failureError keeps the composed failure text while exposing the cause.
type failureError struct {
	msg string
	err error
}

func (e *failureError) Error() string { return e.msg }
func (e *failureError) Unwrap() error { return e.err }

// lineWriter prints each value as one JSON line. It doubles as the
// progress publisher.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (l *lineWriter) Publish(_ context.Context, msg pipeline.Message) {
	_ = l.write(msg)
}

func (l *lineWriter) write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(v)
}
