package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Default values
const (
	// Cache defaults
	DefaultCacheEnabled = true
	DefaultCacheTTL     = 30 * 24 * time.Hour

	// Format defaults
	DefaultVerify       = true
	DefaultChangedOnly  = false
	DefaultReportFormat = "text"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"

	// EnvPrefix is the prefix of environment overrides (CARGOFMT_CACHE_ENABLED, ...)
	EnvPrefix = "CARGOFMT"
)

// DefaultExcludePatterns are never formatted
var DefaultExcludePatterns = []string{
	"**/target/**",
	"**/vendor/**",
}

// DefaultWorkers returns one worker per CPU
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cargofmt"
	}
	return filepath.Join(home, ".cargofmt")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers(),
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Format: FormatConfig{
			Verify:      DefaultVerify,
			ChangedOnly: DefaultChangedOnly,
			Report:      DefaultReportFormat,
		},
		Exclude: append([]string(nil), DefaultExcludePatterns...),
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
