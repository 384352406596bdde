package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LocalBackend implements the Backend interface for local filesystem storage
type LocalBackend struct {
	basePath string
	logger   zerolog.Logger

	// Directories already created, so repeated writes skip os.MkdirAll
	dirCache map[string]bool
	dirMu    sync.Mutex
}

// NewLocalBackend creates a new local filesystem storage backend
func NewLocalBackend(basePath string, logger zerolog.Logger) (*LocalBackend, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalBackend{
		basePath: absPath,
		logger:   logger.With().Str("component", "local-storage").Logger(),
		dirCache: make(map[string]bool),
	}, nil
}

// Write writes data to the specified path with atomic write (write to temp, then rename)
func (b *LocalBackend) Write(ctx context.Context, path string, data []byte) error {
	fullPath, err := b.validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	dir := filepath.Dir(fullPath)
	if err := b.ensureDir(dir); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".sensorlog-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	// CreateTemp uses 0600; artifacts are meant to be read by other tools
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	b.logger.Debug().
		Str("path", path).
		Int("size", len(data)).
		Msg("Wrote file")

	return nil
}

func (b *LocalBackend) ensureDir(dir string) error {
	b.dirMu.Lock()
	defer b.dirMu.Unlock()

	if b.dirCache[dir] {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	b.dirCache[dir] = true
	return nil
}

// Read reads data from the specified path
func (b *LocalBackend) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := b.validatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// List lists all files under the given prefix, relative to the base path
func (b *LocalBackend) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath, err := b.validatePath(prefix)
	if err != nil {
		return nil, fmt.Errorf("invalid prefix: %w", err)
	}

	var results []string
	err = filepath.WalkDir(searchPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		// Skip hidden and in-flight temp files
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		relPath, err := filepath.Rel(b.basePath, path)
		if err != nil {
			return err
		}
		results = append(results, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return results, nil
}

// Delete deletes the object at the specified path
func (b *LocalBackend) Delete(ctx context.Context, path string) error {
	fullPath, err := b.validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	b.logger.Debug().Str("path", path).Msg("Deleted file")
	return nil
}

// Exists checks if an object exists at the specified path
func (b *LocalBackend) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := b.validatePath(path)
	if err != nil {
		return false, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}

	return !info.IsDir(), nil
}

// Close closes any resources held by the backend (no-op for local storage)
func (b *LocalBackend) Close() error {
	return nil
}

// BasePath returns the absolute directory artifacts are written to
func (b *LocalBackend) BasePath() string {
	return b.basePath
}

// Type returns the storage type identifier
func (b *LocalBackend) Type() string {
	return "local"
}

// validatePath ensures the resolved path stays within the base path
func (b *LocalBackend) validatePath(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains NUL byte")
	}
	cleaned := strings.TrimPrefix(filepath.FromSlash(path), string(filepath.Separator))

	absPath, err := filepath.Abs(filepath.Join(b.basePath, cleaned))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	rel, err := filepath.Rel(b.basePath, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: path escapes base directory")
	}

	return absPath, nil
}
