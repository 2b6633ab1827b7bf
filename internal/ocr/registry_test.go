package ocr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LazyInit(t *testing.T) {
	calls := 0
	backend := &fakeBackend{name: "lazy"}
	r := NewRegistry()
	r.Register("lazy", func() (Backend, error) {
		calls++
		return backend, nil
	})

	assert.Equal(t, 0, calls)

	got, err := r.Get("lazy")
	require.NoError(t, err)
	assert.Same(t, backend, got)
	assert.Equal(t, 1, calls)

	// Second Get reuses the initialized backend.
	_, err = r.Get("lazy")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRegistry_UnknownEngine(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	require.Error(t, err)

	var ocrErr *Error
	assert.ErrorAs(t, err, &ocrErr)
}

func TestRegistry_InitFailureRetried(t *testing.T) {
	calls := 0
	r := NewRegistry()
	r.Register("flaky", func() (Backend, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("weights not downloaded yet")
		}
		return &fakeBackend{name: "flaky"}, nil
	})

	_, err := r.Get("flaky")
	require.Error(t, err)

	// Failure is not cached: the next Get retries initialization.
	got, err := r.Get("flaky")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, 2, calls)
}

func TestRegistry_CloseAllowsReinit(t *testing.T) {
	calls := 0
	r := NewRegistry()
	r.Register("engine", func() (Backend, error) {
		calls++
		return &fakeBackend{name: "engine"}, nil
	})

	_, err := r.Get("engine")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Get("engine")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
