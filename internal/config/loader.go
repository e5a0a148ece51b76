package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadFrom loads configuration from file, environment, and defaults into v.
// Flags bound to v beforehand take precedence over all three.
func LoadFrom(v *viper.Viper) (*Config, error) {
	return load(v)
}

// LoadWithViper loads configuration into a fresh viper instance, reading
// configFile when it is set instead of searching the default locations.
func LoadWithViper(configFile string) (*Config, *viper.Viper, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	cfg, err := load(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// SetConfigName would discard an explicit config file
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (CARGOFMT_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("concurrency.workers", DefaultWorkers())

	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.directory", CacheDir())

	v.SetDefault("format.verify", DefaultVerify)
	v.SetDefault("format.changed_only", DefaultChangedOnly)
	v.SetDefault("format.report", DefaultReportFormat)

	v.SetDefault("exclude", DefaultExcludePatterns)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func EnsureCacheDir() error {
	return os.MkdirAll(CacheDir(), 0755)
}
