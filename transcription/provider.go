package transcription

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Provider is a speech-to-text backend.
type Provider interface {
	Name() string
	// IsAvailable reports whether the backend can currently serve requests.
	IsAvailable(ctx context.Context) bool
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Factory creates a Provider from the transcription config.
type Factory func(cfg Config) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a provider factory under name. Backends call it
// from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("transcription: unknown provider %q (registered: %v)", cfg.Provider, Providers())
	}
	return f(cfg)
}
