// Package memory provides an in-process storage backend. Objects live only
// as long as the Storage value.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(storage.Config, any, *logger.Logger) (storage.Storage, error) {
		return New(), nil
	})
}

var _ storage.Storage = (*Storage)(nil)

type object struct {
	data    []byte
	modTime time.Time
}

// Storage is a map-backed storage.Storage.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]*object
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{objects: make(map[string]*object)}
}

func (s *Storage) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: read upload data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = &object{data: data, modTime: time.Now()}
	return nil
}

func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok, nil
}

func (s *Storage) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.FileInfo, 0, len(s.objects))
	for path, obj := range s.objects {
		if strings.HasPrefix(path, prefix) {
			result = append(result, storage.FileInfo{
				Path:         path,
				Size:         int64(len(obj.data)),
				LastModified: obj.modTime,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
