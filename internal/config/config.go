package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for sensorlog
type Config struct {
	Log     LogConfig
	Ingest  IngestConfig
	Storage StorageConfig
	Export  ExportConfig
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type IngestConfig struct {
	MaxLineBytes      int64 // Longest input line accepted by the line scanner
	MaxBufferCapacity int   // Per-sensor reading buffer ceiling; growth past it aborts the run (0 = unbounded)
}

type StorageConfig struct {
	Backend     string // local, s3, azure
	LocalPath   string
	Prefix      string // Key prefix prepended to every artifact path
	Compression string // none, gzip, zstd
	// Retries and circuit breaker for the remote backends
	MaxRetries      int
	RetryDelay      time.Duration
	BreakerFailures int // Consecutive failures that stop further calls (0 = disabled)
	// S3/MinIO configuration
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // Custom endpoint for MinIO (e.g., "http://localhost:9000")
	S3AccessKey string // AWS access key (or use AWS_ACCESS_KEY_ID env var)
	S3SecretKey string // AWS secret key (or use AWS_SECRET_ACCESS_KEY env var)
	S3UseSSL    bool
	S3PathStyle bool // Use path-style addressing (required for MinIO)
	// Azure Blob Storage configuration
	AzureConnectionString   string
	AzureAccountName        string
	AzureAccountKey         string
	AzureSASToken           string
	AzureContainer          string
	AzureEndpoint           string // Custom endpoint (for Azurite testing)
	AzureUseManagedIdentity bool
}

type ExportConfig struct {
	Workers  int  // Sensors written concurrently during emission
	Manifest bool // Opt-in: write the run manifest next to the artifacts
}

// Load loads configuration from defaults, an optional config file and the
// environment. An explicit path overrides the config file search.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SENSORLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sensorlog")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sensorlog/")
		v.AddConfigPath("$HOME/.sensorlog/")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			// Config file not found is OK, use defaults
		}
	}

	maxLine, err := ParseSize(v.GetString("ingest.max_line_size"))
	if err != nil {
		return nil, fmt.Errorf("invalid ingest.max_line_size: %w", err)
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Ingest: IngestConfig{
			MaxLineBytes:      maxLine,
			MaxBufferCapacity: v.GetInt("ingest.max_buffer_capacity"),
		},
		Storage: StorageConfig{
			Backend:                 v.GetString("storage.backend"),
			LocalPath:               v.GetString("storage.local_path"),
			Prefix:                  v.GetString("storage.prefix"),
			Compression:             v.GetString("storage.compression"),
			MaxRetries:              v.GetInt("storage.max_retries"),
			RetryDelay:              v.GetDuration("storage.retry_delay"),
			BreakerFailures:         v.GetInt("storage.breaker_failures"),
			S3Bucket:                v.GetString("storage.s3_bucket"),
			S3Region:                v.GetString("storage.s3_region"),
			S3Endpoint:              v.GetString("storage.s3_endpoint"),
			S3AccessKey:             v.GetString("storage.s3_access_key"),
			S3SecretKey:             v.GetString("storage.s3_secret_key"),
			S3UseSSL:                v.GetBool("storage.s3_use_ssl"),
			S3PathStyle:             v.GetBool("storage.s3_path_style"),
			AzureConnectionString:   v.GetString("storage.azure_connection_string"),
			AzureAccountName:        v.GetString("storage.azure_account_name"),
			AzureAccountKey:         v.GetString("storage.azure_account_key"),
			AzureSASToken:           v.GetString("storage.azure_sas_token"),
			AzureContainer:          v.GetString("storage.azure_container"),
			AzureEndpoint:           v.GetString("storage.azure_endpoint"),
			AzureUseManagedIdentity: v.GetBool("storage.azure_use_managed_identity"),
		},
		Export: ExportConfig{
			Workers:  v.GetInt("export.workers"),
			Manifest: v.GetBool("export.manifest"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Ingest defaults
	v.SetDefault("ingest.max_line_size", "64KB")
	v.SetDefault("ingest.max_buffer_capacity", 0) // Unbounded doubling

	// Storage defaults: artifacts land in the working directory
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_path", ".")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.compression", "none")
	v.SetDefault("storage.max_retries", 3)
	v.SetDefault("storage.retry_delay", "100ms")
	v.SetDefault("storage.breaker_failures", 5)
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_use_ssl", true)
	v.SetDefault("storage.s3_path_style", false) // Set true for MinIO

	// Export defaults
	v.SetDefault("export.workers", 1)
	v.SetDefault("export.manifest", false)
}

// Validate checks enumerated settings and bounds
func (cfg *Config) Validate() error {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "local", "s3", "azure":
	default:
		return fmt.Errorf("invalid storage.backend %q (use local, s3 or azure)", cfg.Storage.Backend)
	}
	switch strings.ToLower(cfg.Storage.Compression) {
	case "none", "", "gzip", "zstd":
	default:
		return fmt.Errorf("invalid storage.compression %q (use none, gzip or zstd)", cfg.Storage.Compression)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format %q (use json or console)", cfg.Log.Format)
	}
	if cfg.Ingest.MaxLineBytes < 64 {
		return fmt.Errorf("ingest.max_line_size must be at least 64B, got %d", cfg.Ingest.MaxLineBytes)
	}
	if cfg.Ingest.MaxBufferCapacity < 0 {
		return fmt.Errorf("ingest.max_buffer_capacity cannot be negative")
	}
	if cfg.Storage.MaxRetries < 0 || cfg.Storage.BreakerFailures < 0 {
		return fmt.Errorf("storage.max_retries and storage.breaker_failures cannot be negative")
	}
	if cfg.Export.Workers < 1 {
		cfg.Export.Workers = 1
	}
	if cfg.Export.Workers > runtime.NumCPU()*4 {
		cfg.Export.Workers = runtime.NumCPU() * 4
	}
	return nil
}

// ParseSize parses a human-readable size string (e.g., "1GB", "500MB", "100KB") to bytes.
// Supports: B, KB, MB, GB (case-insensitive).
// Returns the size in bytes or an error if the format is invalid.
func ParseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(strings.ToUpper(sizeStr))
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	// Define multipliers (order matters: check longer suffixes first)
	type unitInfo struct {
		suffix     string
		multiplier int64
	}
	units := []unitInfo{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}

	// Try each suffix from longest to shortest
	for _, unit := range units {
		if strings.HasSuffix(sizeStr, unit.suffix) {
			numStr := strings.TrimSuffix(sizeStr, unit.suffix)
			numStr = strings.TrimSpace(numStr)

			// Ensure the remaining string is a valid number (no trailing non-numeric chars)
			var num float64
			var trailing string
			n, _ := fmt.Sscanf(numStr, "%f%s", &num, &trailing)
			if n == 0 {
				return 0, fmt.Errorf("invalid size number: %s", numStr)
			}
			if trailing != "" {
				// There's extra text after the number - likely an unrecognized unit like "T" in "1TB"
				return 0, fmt.Errorf("invalid size format: %s (use e.g., '1GB', '500MB', '100KB')", sizeStr)
			}
			if num < 0 {
				return 0, fmt.Errorf("size cannot be negative: %s", sizeStr)
			}
			return int64(num * float64(unit.multiplier)), nil
		}
	}

	// Try parsing as plain number (bytes)
	var num int64
	var trailing string
	n, _ := fmt.Sscanf(sizeStr, "%d%s", &num, &trailing)
	if n == 0 || trailing != "" {
		return 0, fmt.Errorf("invalid size format: %s (use e.g., '1GB', '500MB', '100KB')", sizeStr)
	}
	if num < 0 {
		return 0, fmt.Errorf("size cannot be negative: %s", sizeStr)
	}
	return num, nil
}
