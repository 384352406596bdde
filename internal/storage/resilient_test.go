package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyBackend fails the first `failures` calls, then serves from memory.
type flakyBackend struct {
	mu       sync.Mutex
	failures int
	calls    int
	objects  map[string][]byte
}

func newFlaky(failures int) *flakyBackend {
	return &flakyBackend{failures: failures, objects: make(map[string][]byte)}
}

func (f *flakyBackend) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures < 0 || f.calls <= f.failures {
		return errors.New("connection reset")
	}
	return nil
}

func (f *flakyBackend) Write(ctx context.Context, path string, data []byte) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return nil
}

func (f *flakyBackend) Read(ctx context.Context, path string) ([]byte, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, nil
}

func (f *flakyBackend) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, f.fail()
}
func (f *flakyBackend) Delete(ctx context.Context, path string) error { return f.fail() }
func (f *flakyBackend) Exists(ctx context.Context, path string) (bool, error) {
	return false, f.fail()
}
func (f *flakyBackend) Close() error { return nil }
func (f *flakyBackend) Type() string { return "flaky" }

func fastConfig() ResilientConfig {
	return ResilientConfig{
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
		RetryMaxDelay: 2 * time.Millisecond,
		MaxFailures:   5,
		OpenTimeout:   50 * time.Millisecond,
	}
}

func TestResilientBackend_RetriesTransientFailures(t *testing.T) {
	inner := newFlaky(2)
	r := NewResilientBackend(inner, fastConfig(), zerolog.Nop())

	require.NoError(t, r.Write(context.Background(), "A.txt", []byte("x")))
	assert.Equal(t, 3, inner.calls)
	assert.False(t, r.IsOpen())
}

func TestResilientBackend_GivesUp(t *testing.T) {
	inner := newFlaky(-1)
	cfg := fastConfig()
	cfg.MaxFailures = 0
	r := NewResilientBackend(inner, cfg, zerolog.Nop())

	err := r.Write(context.Background(), "A.txt", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 retries")
	assert.Equal(t, 4, inner.calls)
}

func TestResilientBackend_NotFoundIsNotRetried(t *testing.T) {
	inner := newFlaky(0)
	r := NewResilientBackend(inner, fastConfig(), zerolog.Nop())

	_, err := r.Read(context.Background(), "MISSING.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, inner.calls)
}

func TestResilientBackend_BreakerOpensAndRecovers(t *testing.T) {
	inner := newFlaky(5)
	cfg := fastConfig()
	cfg.MaxRetries = 0
	r := NewResilientBackend(inner, cfg, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.Error(t, r.Write(ctx, "A.txt", []byte("x")))
	}
	assert.True(t, r.IsOpen())

	// Rejected without touching the backend
	err := r.Write(ctx, "A.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, inner.calls)

	time.Sleep(cfg.OpenTimeout + 10*time.Millisecond)

	// The probe succeeds and closes the breaker
	require.NoError(t, r.Write(ctx, "A.txt", []byte("x")))
	assert.False(t, r.IsOpen())

	data, err := r.Read(ctx, "A.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestResilientBackend_FailedProbeReopens(t *testing.T) {
	inner := newFlaky(-1)
	cfg := fastConfig()
	cfg.MaxRetries = 0
	cfg.MaxFailures = 1
	r := NewResilientBackend(inner, cfg, zerolog.Nop())
	ctx := context.Background()

	assert.Error(t, r.Write(ctx, "A.txt", nil))
	require.True(t, r.IsOpen())

	time.Sleep(cfg.OpenTimeout + 10*time.Millisecond)
	err := r.Write(ctx, "A.txt", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCircuitOpen, "probe reached the backend")
	assert.True(t, r.IsOpen())

	assert.ErrorIs(t, r.Write(ctx, "A.txt", nil), ErrCircuitOpen)
}

func TestResilientBackend_ContextCancelledDuringBackoff(t *testing.T) {
	inner := newFlaky(-1)
	cfg := fastConfig()
	cfg.RetryDelay = time.Hour
	cfg.RetryMaxDelay = time.Hour
	r := NewResilientBackend(inner, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Write(ctx, "A.txt", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestResilientBackend_Delegates(t *testing.T) {
	inner := newFlaky(0)
	r := NewResilientBackend(inner, fastConfig(), zerolog.Nop())
	assert.Equal(t, "flaky", r.Type())
	assert.Same(t, Backend(inner), r.Unwrap())
	assert.NoError(t, r.Close())
}
