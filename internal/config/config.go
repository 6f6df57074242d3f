// Package config handles prettybib configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the user configuration stored in ~/.config/prettybib/config.yml.
type Config struct {
	Enrich      EnrichConfig `yaml:"enrich"`
	Anthologies []string     `yaml:"anthologies,omitempty"` // Known-paper BibTeX files
	Log         LogConfig    `yaml:"log"`
}

// EnrichConfig controls the enrichment stage and its external sources.
type EnrichConfig struct {
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`      // Per attempt
	Backoff     time.Duration `yaml:"backoff"`      // First retry delay, doubled after each failure
	MinInterval time.Duration `yaml:"min_interval"` // Per source
	Workers     int           `yaml:"workers"`

	DBpediaEndpoint string `yaml:"dbpedia_endpoint,omitempty"`
	OpenLibraryURL  string `yaml:"openlibrary_url,omitempty"`
	Contact         string `yaml:"contact,omitempty"` // Sent in the User-Agent

	CachePath string        `yaml:"cache_path,omitempty"` // Empty keeps the cache in memory
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LogConfig selects operational log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidLogFormats lists the supported log.format values.
var ValidLogFormats = []string{"console", "json"}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Enrich: EnrichConfig{
			MaxRetries:  3,
			Timeout:     10 * time.Second,
			Backoff:     time.Second,
			MinInterval: time.Second,
			Workers:     4,
			CacheTTL:    30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	e := c.Enrich
	switch {
	case e.MaxRetries < 1:
		return fmt.Errorf("%w: enrich.max_retries must be at least 1, got %d", ErrInvalidConfig, e.MaxRetries)
	case e.Workers < 1:
		return fmt.Errorf("%w: enrich.workers must be at least 1, got %d", ErrInvalidConfig, e.Workers)
	case e.Timeout < 0:
		return fmt.Errorf("%w: enrich.timeout must not be negative", ErrInvalidConfig)
	case e.Backoff < 0:
		return fmt.Errorf("%w: enrich.backoff must not be negative", ErrInvalidConfig)
	case e.MinInterval < 0:
		return fmt.Errorf("%w: enrich.min_interval must not be negative", ErrInvalidConfig)
	case e.CacheTTL < 0:
		return fmt.Errorf("%w: enrich.cache_ttl must not be negative", ErrInvalidConfig)
	}

	if err := ValidateLogFormat(c.Log.Format); err != nil {
		return err
	}
	for _, path := range c.Anthologies {
		if err := ValidateAnthology(path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLogFormat checks that the format value is valid.
func ValidateLogFormat(format string) error {
	if format == "" {
		return nil // Empty defaults to "console"
	}
	for _, valid := range ValidLogFormats {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("%w: log.format %q (valid: %v)", ErrInvalidConfig, format, ValidLogFormats)
}

// ValidateAnthology checks that an anthology path exists and is a file.
func ValidateAnthology(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: anthology does not exist: %s", ErrInvalidConfig, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: anthology is a directory: %s", ErrInvalidConfig, path)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
