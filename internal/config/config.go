// Package config loads hue settings from defaults, a config file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/hue/internal/catalog"
	"github.com/jmylchreest/hue/internal/colour"
	"github.com/jmylchreest/hue/internal/palettecache"
	httputil "github.com/jmylchreest/hue/internal/util/http"
)

// EnvPrefix prefixes environment overrides, e.g. HUE_PAGE_SIZE.
const EnvPrefix = "HUE"

// Config keys.
const (
	KeyAPIBaseURL        = "api_base_url"
	KeyIIIFBaseURL       = "iiif_base_url"
	KeyPageSize          = "page_size"
	KeyFeaturedPageSize  = "featured_page_size"
	KeyColourCount       = "colour_count"
	KeyCacheTTL          = "cache_ttl"
	KeyMaxConcurrent     = "max_concurrent"
	KeyRequestsPerSecond = "requests_per_second"
	KeyHTTPTimeout       = "http_timeout"
	KeyMaxImageBytes     = "max_image_bytes"
	KeyMaxSamples        = "max_samples"
)

// Config holds the resolved settings.
type Config struct {
	APIBaseURL        string        `mapstructure:"api_base_url"`
	IIIFBaseURL       string        `mapstructure:"iiif_base_url"`
	PageSize          int           `mapstructure:"page_size"`
	FeaturedPageSize  int           `mapstructure:"featured_page_size"`
	ColourCount       int           `mapstructure:"colour_count"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	MaxImageBytes     int64         `mapstructure:"max_image_bytes"`
	MaxSamples        int           `mapstructure:"max_samples"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// New returns a viper instance with defaults and environment overrides set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIBaseURL, catalog.DefaultBaseURL)
	v.SetDefault(KeyIIIFBaseURL, catalog.DefaultIIIFURL)
	v.SetDefault(KeyPageSize, catalog.DefaultLimit)
	v.SetDefault(KeyFeaturedPageSize, catalog.FeaturedLimit)
	v.SetDefault(KeyColourCount, colour.DefaultColours)
	v.SetDefault(KeyCacheTTL, palettecache.DefaultTTL)
	v.SetDefault(KeyMaxConcurrent, palettecache.DefaultConcurrency)
	v.SetDefault(KeyRequestsPerSecond, 5.0)
	v.SetDefault(KeyHTTPTimeout, httputil.DefaultTimeout)
	v.SetDefault(KeyMaxImageBytes, int64(httputil.DefaultMaxBytes))
	v.SetDefault(KeyMaxSamples, colour.DefaultMaxSamples)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// BindFlags binds command-line flags to config keys. Flags that were not set
// on the command line do not override the file or environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, flag := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q for config key %s", flag, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the config file and returns the resolved config.
// An empty cfgFile searches for hue.yaml in the working directory and the
// user config directory; a missing file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("hue")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "hue"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch {
	case c.APIBaseURL == "":
		return fmt.Errorf("config: %s must be set", KeyAPIBaseURL)
	case c.IIIFBaseURL == "":
		return fmt.Errorf("config: %s must be set", KeyIIIFBaseURL)
	case c.PageSize < 1 || c.PageSize > catalog.MaxLimit:
		return fmt.Errorf("config: %s must be between 1 and %d, got %d", KeyPageSize, catalog.MaxLimit, c.PageSize)
	case c.FeaturedPageSize < 1 || c.FeaturedPageSize > catalog.MaxLimit:
		return fmt.Errorf("config: %s must be between 1 and %d, got %d", KeyFeaturedPageSize, catalog.MaxLimit, c.FeaturedPageSize)
	case c.ColourCount < 1:
		return fmt.Errorf("config: %s must be at least 1, got %d", KeyColourCount, c.ColourCount)
	case c.CacheTTL <= 0:
		return fmt.Errorf("config: %s must be positive", KeyCacheTTL)
	case c.MaxConcurrent < 1:
		return fmt.Errorf("config: %s must be at least 1, got %d", KeyMaxConcurrent, c.MaxConcurrent)
	case c.RequestsPerSecond < 0:
		return fmt.Errorf("config: %s cannot be negative", KeyRequestsPerSecond)
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("config: %s must be positive", KeyHTTPTimeout)
	case c.MaxImageBytes <= 0:
		return fmt.Errorf("config: %s must be positive", KeyMaxImageBytes)
	case c.MaxSamples < 1:
		return fmt.Errorf("config: %s must be at least 1, got %d", KeyMaxSamples, c.MaxSamples)
	}
	return nil
}
