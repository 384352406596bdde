package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Empty working dir so no sensorlog.toml is found
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Backend != "local" {
		t.Errorf("Storage.Backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.Storage.LocalPath != "." {
		t.Errorf("Storage.LocalPath = %q, want .", cfg.Storage.LocalPath)
	}
	if cfg.Storage.Compression != "none" {
		t.Errorf("Storage.Compression = %q, want none", cfg.Storage.Compression)
	}
	if cfg.Ingest.MaxLineBytes != 64*1024 {
		t.Errorf("Ingest.MaxLineBytes = %d, want %d", cfg.Ingest.MaxLineBytes, 64*1024)
	}
	if cfg.Ingest.MaxBufferCapacity != 0 {
		t.Errorf("Ingest.MaxBufferCapacity = %d, want 0", cfg.Ingest.MaxBufferCapacity)
	}
	if cfg.Export.Workers != 1 {
		t.Errorf("Export.Workers = %d, want 1", cfg.Export.Workers)
	}
	if cfg.Export.Manifest {
		t.Error("Export.Manifest should default to false")
	}
	if cfg.Storage.MaxRetries != 3 || cfg.Storage.BreakerFailures != 5 {
		t.Errorf("Storage retries = %d/%d, want 3/5", cfg.Storage.MaxRetries, cfg.Storage.BreakerFailures)
	}
	if cfg.Storage.RetryDelay != 100*time.Millisecond {
		t.Errorf("Storage.RetryDelay = %v, want 100ms", cfg.Storage.RetryDelay)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("Log.Format = %q, want console", cfg.Log.Format)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SENSORLOG_STORAGE_COMPRESSION", "zstd")
	t.Setenv("SENSORLOG_EXPORT_WORKERS", "3")
	t.Setenv("SENSORLOG_INGEST_MAX_BUFFER_CAPACITY", "800")
	t.Setenv("SENSORLOG_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Compression != "zstd" {
		t.Errorf("Storage.Compression = %q, want zstd (from env)", cfg.Storage.Compression)
	}
	if cfg.Export.Workers != 3 {
		t.Errorf("Export.Workers = %d, want 3 (from env)", cfg.Export.Workers)
	}
	if cfg.Ingest.MaxBufferCapacity != 800 {
		t.Errorf("Ingest.MaxBufferCapacity = %d, want 800 (from env)", cfg.Ingest.MaxBufferCapacity)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug (from env)", cfg.Log.Level)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.toml")
	content := `
[storage]
backend = "local"
local_path = "/tmp/sensors"
compression = "gzip"

[ingest]
max_line_size = "1KB"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.LocalPath != "/tmp/sensors" {
		t.Errorf("Storage.LocalPath = %q, want /tmp/sensors", cfg.Storage.LocalPath)
	}
	if cfg.Storage.Compression != "gzip" {
		t.Errorf("Storage.Compression = %q, want gzip", cfg.Storage.Compression)
	}
	if cfg.Ingest.MaxLineBytes != 1024 {
		t.Errorf("Ingest.MaxLineBytes = %d, want 1024", cfg.Ingest.MaxLineBytes)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("does-not-exist.toml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Log:     LogConfig{Level: "info", Format: "json"},
			Ingest:  IngestConfig{MaxLineBytes: 1024},
			Storage: StorageConfig{Backend: "local", Compression: "none"},
			Export:  ExportConfig{Workers: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }, true},
		{"unknown compression", func(c *Config) { c.Storage.Compression = "lz4" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"tiny line size", func(c *Config) { c.Ingest.MaxLineBytes = 10 }, true},
		{"negative capacity", func(c *Config) { c.Ingest.MaxBufferCapacity = -1 }, true},
		{"negative retries", func(c *Config) { c.Storage.MaxRetries = -1 }, true},
		{"zero workers clamped", func(c *Config) { c.Export.Workers = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.Export.Workers < 1 {
				t.Errorf("Export.Workers = %d, should be clamped to >= 1", cfg.Export.Workers)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"64KB", 64 * 1024, false},
		{"1mb", 1024 * 1024, false},
		{"512", 512, false},
		{"10B", 10, false},
		{"", 0, true},
		{"1TB", 0, true},
		{"abc", 0, true},
		{"-5MB", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
