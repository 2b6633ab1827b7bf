package ocr

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Factory constructs a backend. Construction may be expensive (engine
// load), so the registry defers it to first use.
type Factory func() (Backend, error)

// Registry is a process-wide pool of lazily initialized OCR backends.
// Initialization failures are returned to the caller but not cached:
// transient unavailability (e.g. missing language data) is retried on
// the next Get.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	backends  map[string]Backend
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		backends:  make(map[string]Backend),
	}
}

// Register installs a factory under an engine name. Registering over an
// existing name replaces the factory for future initialization.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get returns the backend for name, initializing it on first use.
// Concurrent first use initializes exactly once.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[name]; ok {
		return b, nil
	}
	f, ok := r.factories[name]
	if !ok {
		return nil, &Error{Engine: name, Message: "unknown engine"}
	}
	b, err := f()
	if err != nil {
		// Not cached: the next Get retries initialization.
		return nil, fmt.Errorf("initialize engine %s: %w", name, err)
	}
	slog.Info("OCR engine initialized", "engine", name)
	r.backends[name] = b
	return b, nil
}

// Close shuts down every initialized backend. Factories stay registered,
// so subsequent Gets re-initialize.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, b := range r.backends {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close engine %s: %w", name, err)
			}
		}
		delete(r.backends, name)
	}
	return firstErr
}
