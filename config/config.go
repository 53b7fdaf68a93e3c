// Package config loads vibedom settings from defaults, an optional YAML file,
// VIBEDOM_* environment variables and bound command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. VIBEDOM_LOGGER_LEVEL.
const EnvPrefix = "VIBEDOM"

// Config is the full configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Runtime RuntimeConfig `mapstructure:"runtime" yaml:"runtime"`
}

// LoggerConfig controls the process logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	// Console disables terminal output when false; LogFile still receives JSON.
	Console bool `mapstructure:"console" yaml:"console"`
	// LogFile enables a rotating JSON log when set.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// NetworkConfig controls the resource loader.
type NetworkConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxRedirects int           `mapstructure:"max_redirects" yaml:"max_redirects"`
	CacheSize    int           `mapstructure:"cache_size" yaml:"cache_size"`
	// LocalPath serves URL paths from a directory before the network.
	LocalPath string `mapstructure:"local_path" yaml:"local_path"`
}

// RuntimeConfig controls the windows the CLI creates.
type RuntimeConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	DataPath string `mapstructure:"data_path" yaml:"data_path"`
	// RunTimeout bounds how long a window's loop may run before giving up.
	RunTimeout time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
	// Storage enables the SQLite localStorage backend.
	Storage bool `mapstructure:"storage" yaml:"storage"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "vibedom")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.console", true)
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)

	v.SetDefault("network.timeout", "30s")
	v.SetDefault("network.user_agent", "")
	v.SetDefault("network.max_redirects", 10)
	v.SetDefault("network.cache_size", 1000)
	v.SetDefault("network.local_path", "")

	v.SetDefault("runtime.url", "")
	v.SetDefault("runtime.base_url", "")
	v.SetDefault("runtime.data_path", ".")
	v.SetDefault("runtime.run_timeout", "30s")
	v.SetDefault("runtime.storage", true)
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile reads path into v. An empty path looks for vibedom.yaml in the
// working directory and is not an error when none exists.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("vibedom")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration from defaults, the file at path and the
// environment.
func Load(path string) (*Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Default returns the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logger.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	if c.Network.Timeout < 0 {
		return fmt.Errorf("network.timeout must not be negative")
	}
	if c.Network.MaxRedirects < 0 {
		return fmt.Errorf("network.max_redirects must not be negative")
	}
	if c.Network.CacheSize <= 0 {
		return fmt.Errorf("network.cache_size must be a positive integer")
	}
	if c.Runtime.RunTimeout <= 0 {
		return fmt.Errorf("runtime.run_timeout must be positive")
	}
	return nil
}
