package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/hue/internal/catalog"
)

// isolate keeps Load from finding a hue.yaml outside the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != catalog.DefaultBaseURL || cfg.PageSize != 20 || cfg.FeaturedPageSize != 24 {
		t.Errorf("catalog defaults = %+v", cfg)
	}
	if cfg.ColourCount != 6 || cfg.MaxConcurrent != 3 || cfg.CacheTTL != 24*time.Hour || cfg.MaxSamples != 5000 {
		t.Errorf("extraction defaults = %+v", cfg)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.MaxImageBytes != 20<<20 || cfg.RequestsPerSecond != 5 {
		t.Errorf("http defaults = %+v", cfg)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := "page_size: 50\ncolour_count: 8\ncache_ttl: 2h\napi_base_url: http://localhost:9000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PageSize != 50 || cfg.ColourCount != 8 || cfg.CacheTTL != 2*time.Hour {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.APIBaseURL != "http://localhost:9000" || cfg.File != path {
		t.Errorf("APIBaseURL = %q, File = %q", cfg.APIBaseURL, cfg.File)
	}
}

func TestLoadSearchesWorkingDirectory(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("hue.yaml", []byte("max_concurrent: 5\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxConcurrent != 5 || !strings.HasSuffix(cfg.File, "hue.yaml") {
		t.Errorf("MaxConcurrent = %d, File = %q", cfg.MaxConcurrent, cfg.File)
	}
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("HUE_PAGE_SIZE", "40")
	t.Setenv("HUE_HTTP_TIMEOUT", "30s")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PageSize != 40 || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("PageSize = %d, HTTPTimeout = %v", cfg.PageSize, cfg.HTTPTimeout)
	}
}

func TestBindFlags(t *testing.T) {
	isolate(t)
	t.Setenv("HUE_COLOUR_COUNT", "4")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("colours", 6, "")
	flags.Int("concurrency", 3, "")

	v := New()
	if err := BindFlags(v, flags, map[string]string{KeyColourCount: "colours", KeyMaxConcurrent: "concurrency"}); err != nil {
		t.Fatalf("BindFlags() error = %v", err)
	}
	if err := flags.Parse([]string{"--concurrency", "7"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxConcurrent != 7 {
		t.Errorf("MaxConcurrent = %d, want flag value 7", cfg.MaxConcurrent)
	}
	if cfg.ColourCount != 4 {
		t.Errorf("ColourCount = %d, want env value 4 over unset flag", cfg.ColourCount)
	}

	if err := BindFlags(v, flags, map[string]string{KeyPageSize: "missing"}); err == nil {
		t.Error("BindFlags() with unknown flag expected error")
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	if _, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing explicit file expected error")
	}

	t.Setenv("HUE_PAGE_SIZE", "500")
	if _, err := Load(New(), ""); err == nil {
		t.Error("Load() with page_size 500 expected error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			APIBaseURL: "a", IIIFBaseURL: "b", PageSize: 20, FeaturedPageSize: 24, ColourCount: 6,
			CacheTTL: time.Hour, MaxConcurrent: 3, HTTPTimeout: time.Second, MaxImageBytes: 1,
			MaxSamples: 100,
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty api url", func(c *Config) { c.APIBaseURL = "" }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"zero colours", func(c *Config) { c.ColourCount = 0 }},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }},
		{"zero concurrency", func(c *Config) { c.MaxConcurrent = 0 }},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }},
		{"zero samples", func(c *Config) { c.MaxSamples = 0 }},
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() on valid config error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}
