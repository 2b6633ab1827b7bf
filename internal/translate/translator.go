// Package translate batches block text through a translation backend and
// reconstructs a structurally identical document in the target language.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Translator is the translation backend contract. TranslateBatch is
// order-preserving and returns exactly one output per input text.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Error indicates a translation backend problem. Batch-level errors
// degrade to per-item retries before surfacing.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return fmt.Sprintf("translation: %s", e.Message) }

func (e *Error) Unwrap() error { return e.Err }

// HTTPTranslator talks to a sequence-to-sequence inference server over
// HTTP. The server owns the model; this client ships batches of text.
type HTTPTranslator struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewHTTPTranslator creates a client for an HTTP translation endpoint
// serving the given model identifier.
func NewHTTPTranslator(endpoint, model string) *HTTPTranslator {
	return &HTTPTranslator{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 300 * time.Second},
	}
}

type translateRequest struct {
	Texts      []string `json:"texts"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
	Model      string   `json:"model,omitempty"`
}

type translateResponse struct {
	Translations []string `json:"translations"`
}

// TranslateBatch posts a batch and validates the response shape.
func (t *HTTPTranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	body, err := json.Marshal(translateRequest{
		Texts:      texts,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Model:      t.model,
	})
	if err != nil {
		return nil, &Error{Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &Error{Message: "backend unavailable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var parsed translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Message: "decode response", Err: err}
	}
	if len(parsed.Translations) != len(texts) {
		return nil, &Error{Message: fmt.Sprintf("backend returned %d translations for %d texts",
			len(parsed.Translations), len(texts))}
	}
	return parsed.Translations, nil
}

// Registry is a process-wide holder for the lazily initialized
// translation backend. Model load is expensive; the backend is created
// on first use and reused across jobs. Initialization failure is not
// cached, so transient unavailability is retried at next use.
type Registry struct {
	mu      sync.Mutex
	factory func() (Translator, error)
	backend Translator
}

// NewRegistry creates a registry around a backend factory.
func NewRegistry(factory func() (Translator, error)) *Registry {
	return &Registry{factory: factory}
}

// Get returns the shared translator, initializing it on first use.
func (r *Registry) Get() (Translator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend != nil {
		return r.backend, nil
	}
	b, err := r.factory()
	if err != nil {
		return nil, fmt.Errorf("initialize translation backend: %w", err)
	}
	r.backend = b
	return b, nil
}

// Reset drops the initialized backend so the next Get re-initializes.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = nil
}
