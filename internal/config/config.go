package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DocsRsConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

type ValidateConfig struct {
	// OnFetch runs reference-closure validation on every document as it
	// enters the cache.
	OnFetch bool `mapstructure:"on_fetch"`
}

type Config struct {
	DocsRs   DocsRsConfig   `mapstructure:"docs_rs"`
	Validate ValidateConfig `mapstructure:"validate"`
}

// cacheBase returns the base cache directory for cratemap.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/cratemap as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "cratemap")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "cratemap")
	}
	return filepath.Join(os.TempDir(), "cratemap")
}

// DBPath returns the path to the DuckDB database file.
func DBPath() string {
	return filepath.Join(cacheBase(), "db.db")
}

// CASDir returns the path to the content-addressable storage directory.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// JSONCacheDir returns the path to the rustdoc JSON cache directory.
func JSONCacheDir() string {
	return filepath.Join(cacheBase(), "json")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "cratemap"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "cratemap"))
	}

	viper.SetDefault("docs_rs.base_url", "https://docs.rs")
	viper.SetDefault("docs_rs.user_agent", "cratemap/0.1.0")
	viper.SetDefault("docs_rs.timeout", "60s")
	viper.SetDefault("docs_rs.concurrency", 4)
	viper.SetDefault("validate.on_fetch", true)

	viper.SetEnvPrefix("CRATEMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.DocsRs.Concurrency < 1 {
		config.DocsRs.Concurrency = 1
	}
	config.DocsRs.BaseURL = strings.TrimSuffix(config.DocsRs.BaseURL, "/")

	return &config, nil
}
