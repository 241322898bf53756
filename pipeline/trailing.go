package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/kbukum/vidscribe/storage"
)

// SkippedText is the completion text of trailing steps that do no work.
const SkippedText = "Skipped in basic version."

// TrailingSteps completes the steps that follow a produced transcript.
// Complete returns the text published with the step's completed message.
type TrailingSteps interface {
	Complete(ctx context.Context, step StageID, res *Result) (string, error)
}

// MarkSkipped completes every trailing step without doing any work.
type MarkSkipped struct{}

func (MarkSkipped) Complete(context.Context, StageID, *Result) (string, error) {
	return SkippedText, nil
}

// StorageSource yields the storage backend once it has been started.
type StorageSource interface {
	Storage() storage.Storage
}

// Sealer encrypts an archived payload.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
}

// ArchiveTranscript uploads the transcript during upload_to_s3 and defers
// every other step to Next. With a Sealer the object is stored encrypted
// under a ".enc" key.
type ArchiveTranscript struct {
	Source StorageSource
	Prefix string
	Sealer Sealer
	Next   TrailingSteps
}

// NewArchiveTranscript creates an archiving hook writing under prefix.
func NewArchiveTranscript(source StorageSource, prefix string) *ArchiveTranscript {
	return &ArchiveTranscript{Source: source, Prefix: prefix, Next: MarkSkipped{}}
}

// Key returns the object key the transcript of res is archived under.
func (a *ArchiveTranscript) Key(res *Result) string {
	name := strings.TrimSuffix(res.Filename, path.Ext(res.Filename))
	key := path.Join(a.Prefix, fmt.Sprintf("%s_%s.txt", res.RunID, name))
	if a.Sealer != nil {
		key += ".enc"
	}
	return key
}

func (a *ArchiveTranscript) Complete(ctx context.Context, step StageID, res *Result) (string, error) {
	if step != StageUploadToS3 {
		next := a.Next
		if next == nil {
			next = MarkSkipped{}
		}
		return next.Complete(ctx, step, res)
	}

	var store storage.Storage
	if a.Source != nil {
		store = a.Source.Storage()
	}
	if store == nil {
		return "", errors.New("archive storage is not available")
	}

	data := []byte(res.Transcript)
	if a.Sealer != nil {
		sealed, err := a.Sealer.Seal(data)
		if err != nil {
			return "", err
		}
		data = sealed
	}

	key := a.Key(res)
	if err := storage.NewByteClient(store).Upload(ctx, key, data); err != nil {
		return "", err
	}

	location := key
	if u, err := store.URL(ctx, key); err == nil {
		location = u
	}
	return fmt.Sprintf("Transcript archived to %s.", location), nil
}
