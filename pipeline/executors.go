package pipeline

import (
	"context"
	"io"
)

// Persister stores the uploaded bytes under key and returns the local path
// of the fully written file.
type Persister interface {
	Persist(ctx context.Context, key string, r io.Reader) (string, error)
}

// AudioExtractor writes the audio track of videoPath to audioPath.
// Implementations return errors.NoAudioTrack, errors.ToolingUnavailable or
// errors.ExtractionFailed.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
}

// Transcriber produces a transcript for the audio file. filename is the
// original upload name.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, filename string) (string, error)
}

// Upload is a validated, non-empty uploaded file. The run owns Body and
// closes it once the bytes are persisted, so the submitter must not close it.
type Upload struct {
	Filename string
	Size     int64
	Body     io.ReadCloser
}

func (u Upload) closeBody() {
	if u.Body != nil {
		_ = u.Body.Close()
	}
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string
	Filename   string
	Transcript string
}
