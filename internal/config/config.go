// Package config provides configuration management.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
)

// Backend names a price store implementation
type Backend string

const (
	BackendCSV      Backend = "csv"
	BackendPostgres Backend = "postgres"
	BackendAWSAPI   Backend = "awsapi"
)

// EnvPrefix prefixes every environment override, e.g. PRICECALC_STORE_BACKEND
const EnvPrefix = "PRICECALC"

// Config is the main application configuration
type Config struct {
	// Store selects and configures the price row store
	Store StoreConfig `mapstructure:"store"`

	// Estimate contains estimation settings
	Estimate EstimateConfig `mapstructure:"estimate"`

	// Output contains output configuration
	Output OutputConfig `mapstructure:"output"`

	// Logging contains logging configuration
	Logging logging.Config `mapstructure:"logging"`
}

// StoreConfig contains price store settings
type StoreConfig struct {
	// Backend is one of csv, postgres, awsapi
	Backend Backend `mapstructure:"backend"`

	// DataDir holds <service>/<partition-key>.csv shards for the csv backend
	DataDir string `mapstructure:"data_dir"`

	// DSN is the PostgreSQL connection string for the postgres backend
	DSN string `mapstructure:"dsn"`

	// APIRegion is the AWS region hosting the Price List API
	APIRegion string `mapstructure:"api_region"`

	// CacheTTL keeps search results in memory; zero disables the cache
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// CacheEntries bounds the search cache
	CacheEntries int `mapstructure:"cache_entries"`

	// ServiceCacheTTL overrides CacheTTL per service code, e.g.
	// {AmazonEC2: 1m}. Keys are matched case-insensitively.
	ServiceCacheTTL map[string]time.Duration `mapstructure:"service_cache_ttl"`
}

// EstimateConfig contains estimation settings
type EstimateConfig struct {
	// Workers bounds how many service queries run at once
	Workers int `mapstructure:"workers"`

	// DefaultTerm is applied when a query names no term; empty means all terms
	DefaultTerm string `mapstructure:"default_term"`

	// Currency is the currency prefix used in SKU tables
	Currency string `mapstructure:"currency"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// ShowDetails prints every SKU row, not just the total
	ShowDetails bool `mapstructure:"show_details"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Store: StoreConfig{
			Backend:      BackendCSV,
			DataDir:      filepath.Join(homeDir, ".pricecalc", "data"),
			APIRegion:    "us-east-1",
			CacheTTL:     15 * time.Minute,
			CacheEntries: 1024,
		},
		Estimate: EstimateConfig{
			Workers:  4,
			Currency: "$",
		},
		Output: OutputConfig{
			ShowDetails: true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads configuration from path (JSON, YAML or TOML by extension) and
// PRICECALC_* environment variables. A missing file yields defaults plus env.
// Priority (highest to lowest): environment, file, built-in defaults.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, errors.Config("error reading config file", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Config("error decoding config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendCSV:
		if c.Store.DataDir == "" {
			return errors.New(errors.TypeConfig, "store.data_dir is required for the csv backend")
		}
	case BackendPostgres:
		if c.Store.DSN == "" {
			return errors.New(errors.TypeConfig, "store.dsn is required for the postgres backend")
		}
	case BackendAWSAPI:
	default:
		return errors.Newf(errors.TypeConfig, "unsupported store backend: %q", c.Store.Backend)
	}

	if c.Store.CacheTTL < 0 {
		return errors.Newf(errors.TypeConfig, "store.cache_ttl must not be negative, got %s", c.Store.CacheTTL)
	}
	for svc, ttl := range c.Store.ServiceCacheTTL {
		if ttl < 0 {
			return errors.Newf(errors.TypeConfig, "store.service_cache_ttl.%s must not be negative, got %s", svc, ttl)
		}
	}
	if c.Estimate.Workers < 1 {
		return errors.Newf(errors.TypeConfig, "estimate.workers must be at least 1, got %d", c.Estimate.Workers)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("store.backend", string(d.Store.Backend))
	v.SetDefault("store.data_dir", d.Store.DataDir)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.api_region", d.Store.APIRegion)
	v.SetDefault("store.cache_ttl", d.Store.CacheTTL)
	v.SetDefault("store.cache_entries", d.Store.CacheEntries)
	v.SetDefault("estimate.workers", d.Estimate.Workers)
	v.SetDefault("estimate.default_term", d.Estimate.DefaultTerm)
	v.SetDefault("estimate.currency", d.Estimate.Currency)
	v.SetDefault("output.show_details", d.Output.ShowDetails)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.development", d.Logging.Development)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
