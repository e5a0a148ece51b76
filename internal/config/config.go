package config

import (
	"fmt"
	"time"

	"github.com/gobwas/glob"
	"github.com/quantmind-br/cargofmt/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Format      FormatConfig      `mapstructure:"format" yaml:"format"`
	Exclude     []string          `mapstructure:"exclude" yaml:"exclude"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// CacheConfig contains render cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// FormatConfig contains formatting behaviour settings
type FormatConfig struct {
	Verify      bool   `mapstructure:"verify" yaml:"verify"`
	ChangedOnly bool   `mapstructure:"changed_only" yaml:"changed_only"`
	Report      string `mapstructure:"report" yaml:"report"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration, replacing out-of-range values with
// defaults and rejecting values that cannot be corrected.
func (c *Config) Validate() error {
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers()
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = CacheDir()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	switch c.Format.Report {
	case "":
		c.Format.Report = DefaultReportFormat
	case "text", "json", "yaml":
	default:
		return domain.NewValidationError("format.report", fmt.Sprintf("unknown report format %q", c.Format.Report))
	}

	switch c.Logging.Format {
	case "":
		c.Logging.Format = DefaultLogFormat
	case "pretty", "json":
	default:
		return domain.NewValidationError("logging.format", fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}

	if _, err := c.ExcludeMatchers(); err != nil {
		return err
	}
	return nil
}

// ExcludeMatchers compiles the exclude patterns. Patterns use '/' as the
// separator and support '**'.
func (c *Config) ExcludeMatchers() ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(c.Exclude))
	for _, p := range c.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, domain.NewValidationError("exclude", fmt.Sprintf("invalid pattern %q: %v", p, err))
		}
		out = append(out, g)
	}
	return out, nil
}
