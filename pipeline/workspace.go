package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/storage"
)

// Workspace tracks the temporary artifacts of one run and removes them on
// Release. It writes through a storage backend whose objects are local files.
type Workspace struct {
	store    storage.Storage
	resolver storage.PathResolver

	mu       sync.Mutex
	keys     []string
	released bool
	once     sync.Once
	err      error
}

var _ Persister = (*Workspace)(nil)

// NewWorkspace creates a workspace over store. The store must resolve object
// keys to filesystem paths so external tools can read the artifacts.
func NewWorkspace(store storage.Storage) (*Workspace, error) {
	resolver, ok := store.(storage.PathResolver)
	if !ok {
		return nil, fmt.Errorf("pipeline: workspace storage %T does not expose local paths", store)
	}
	return &Workspace{store: store, resolver: resolver}, nil
}

// Persist writes r under key, registers it for release and returns its path.
func (w *Workspace) Persist(ctx context.Context, key string, r io.Reader) (string, error) {
	path, err := w.Reserve(key)
	if err != nil {
		return "", err
	}
	if err := w.store.Upload(ctx, key, r); err != nil {
		return "", err
	}
	return path, nil
}

// Reserve registers key for an artifact another process will create and
// returns its path.
func (w *Workspace) Reserve(key string) (string, error) {
	path, err := w.resolver.LocalPath(key)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return "", errors.New("pipeline: workspace already released")
	}
	w.keys = append(w.keys, key)
	return path, nil
}

// Keys returns the registered artifact keys.
func (w *Workspace) Keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.keys...)
}

// Release deletes every registered artifact. Missing artifacts are skipped.
// Only the first call does any work; later calls return its result.
func (w *Workspace) Release(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		keys := w.keys
		w.released = true
		w.mu.Unlock()

		var errs []error
		for _, key := range keys {
			if err := w.store.Delete(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("release %s: %w", key, err))
			}
		}
		w.err = errors.Join(errs...)
	})
	return w.err
}

// SweepStale deletes workspace artifacts older than maxAge, left behind by a
// process that died mid-run. It returns the number of objects removed.
func SweepStale(ctx context.Context, store storage.Storage, maxAge time.Duration) (int, error) {
	files, err := store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("sweep workspace: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, f := range files {
		if f.LastModified.After(cutoff) {
			continue
		}
		if err := store.Delete(ctx, f.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Removed stale workspace artifacts", logger.Fields("count", removed))
	}
	return removed, errors.Join(errs...)
}
