package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrCircuitOpen is returned while the breaker rejects calls to a failing backend.
var ErrCircuitOpen = errors.New("storage circuit breaker is open")

// ResilientConfig holds retry and circuit breaker settings
type ResilientConfig struct {
	MaxRetries    int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration

	// Consecutive failures that open the breaker (0 disables it)
	MaxFailures int
	// How long the breaker stays open before letting a probe through
	OpenTimeout time.Duration
}

// DefaultResilientConfig returns default resilient backend configuration
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxRetries:    3,
		RetryDelay:    100 * time.Millisecond,
		RetryMaxDelay: 5 * time.Second,
		MaxFailures:   5,
		OpenTimeout:   30 * time.Second,
	}
}

// ResilientBackend wraps a remote backend with retries and a circuit breaker,
// so an unreachable bucket fails the remaining artifacts quickly instead of
// retrying each one in full.
type ResilientBackend struct {
	backend Backend
	cfg     ResilientConfig
	breaker *breaker
	logger  zerolog.Logger
}

// NewResilientBackend wraps backend
func NewResilientBackend(backend Backend, cfg ResilientConfig, logger zerolog.Logger) *ResilientBackend {
	log := logger.With().Str("component", "resilient-storage").Str("backend", backend.Type()).Logger()
	return &ResilientBackend{
		backend: backend,
		cfg:     cfg,
		breaker: &breaker{maxFailures: cfg.MaxFailures, openTimeout: cfg.OpenTimeout, logger: log},
		logger:  log,
	}
}

// Write writes data with retries
func (r *ResilientBackend) Write(ctx context.Context, path string, data []byte) error {
	return r.do(ctx, "write", path, func() error {
		return r.backend.Write(ctx, path, data)
	})
}

// Read reads data with retries. A missing object is returned at once.
func (r *ResilientBackend) Read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := r.do(ctx, "read", path, func() error {
		var readErr error
		data, readErr = r.backend.Read(ctx, path)
		return readErr
	})
	return data, err
}

// List lists objects with retries
func (r *ResilientBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	err := r.do(ctx, "list", prefix, func() error {
		var listErr error
		out, listErr = r.backend.List(ctx, prefix)
		return listErr
	})
	return out, err
}

// Delete deletes with retries
func (r *ResilientBackend) Delete(ctx context.Context, path string) error {
	return r.do(ctx, "delete", path, func() error {
		return r.backend.Delete(ctx, path)
	})
}

// Exists checks existence with retries
func (r *ResilientBackend) Exists(ctx context.Context, path string) (bool, error) {
	var ok bool
	err := r.do(ctx, "exists", path, func() error {
		var existsErr error
		ok, existsErr = r.backend.Exists(ctx, path)
		return existsErr
	})
	return ok, err
}

// Close closes the wrapped backend
func (r *ResilientBackend) Close() error {
	return r.backend.Close()
}

// Type returns the wrapped backend's type
func (r *ResilientBackend) Type() string {
	return r.backend.Type()
}

// Unwrap returns the wrapped backend
func (r *ResilientBackend) Unwrap() Backend {
	return r.backend
}

func (r *ResilientBackend) do(ctx context.Context, op, path string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if !r.breaker.allow() {
			r.logger.Warn().Str("op", op).Str("path", path).Msg("Storage call rejected, circuit breaker open")
			return fmt.Errorf("%s %s: %w", op, path, ErrCircuitOpen)
		}

		err := fn()
		// A missing object is an answer, not a backend fault
		if err == nil || errors.Is(err, ErrNotFound) {
			r.breaker.record(true)
			return err
		}
		r.breaker.record(false)
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == r.cfg.MaxRetries {
			break
		}

		delay := r.cfg.RetryDelay * time.Duration(1<<uint(attempt))
		if r.cfg.RetryMaxDelay > 0 && delay > r.cfg.RetryMaxDelay {
			delay = r.cfg.RetryMaxDelay
		}

		r.logger.Warn().
			Err(err).
			Str("op", op).
			Str("path", path).
			Int("attempt", attempt+1).
			Int("max_retries", r.cfg.MaxRetries).
			Dur("retry_delay", delay).
			Msg("Storage call failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("storage %s failed after %d retries: %w", op, r.cfg.MaxRetries, lastErr)
}

// breaker opens after maxFailures consecutive failures. Once openTimeout has
// passed a single probe is let through; its outcome closes or reopens it.
type breaker struct {
	maxFailures int
	openTimeout time.Duration
	logger      zerolog.Logger

	mu       sync.Mutex
	failures int
	open     bool
	probing  bool
	openedAt time.Time
}

func (b *breaker) allow() bool {
	if b.maxFailures <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.probing || time.Since(b.openedAt) < b.openTimeout {
		return false
	}
	b.probing = true
	return true
}

func (b *breaker) record(ok bool) {
	if b.maxFailures <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.probing
	b.probing = false

	if ok {
		if b.open {
			b.logger.Info().Msg("Circuit breaker closed")
		}
		b.open = false
		b.failures = 0
		return
	}

	b.failures++
	if wasProbe || (!b.open && b.failures >= b.maxFailures) {
		if !b.open {
			b.logger.Warn().Int("failures", b.failures).Msg("Circuit breaker opened")
		}
		b.open = true
		b.openedAt = time.Now()
	}
}

// IsOpen reports whether the breaker is currently rejecting calls
func (r *ResilientBackend) IsOpen() bool {
	r.breaker.mu.Lock()
	defer r.breaker.mu.Unlock()
	return r.breaker.open
}
