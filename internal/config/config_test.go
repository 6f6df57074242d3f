package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Enrich.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Enrich.MaxRetries)
	}
	if cfg.Enrich.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Enrich.Timeout)
	}
	if cfg.Enrich.CachePath != "" {
		t.Errorf("CachePath = %q, want empty (in-memory)", cfg.Enrich.CachePath)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero retries", func(c *Config) { c.Enrich.MaxRetries = 0 }},
		{"zero workers", func(c *Config) { c.Enrich.Workers = 0 }},
		{"negative timeout", func(c *Config) { c.Enrich.Timeout = -time.Second }},
		{"negative backoff", func(c *Config) { c.Enrich.Backoff = -time.Second }},
		{"negative interval", func(c *Config) { c.Enrich.MinInterval = -time.Second }},
		{"negative ttl", func(c *Config) { c.Enrich.CacheTTL = -time.Hour }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"missing anthology", func(c *Config) { c.Anthologies = []string{"/nonexistent/papers.bib"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidateAnthology(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "papers.bib")
	if err := os.WriteFile(file, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateAnthology(file); err != nil {
		t.Errorf("ValidateAnthology(file) error = %v", err)
	}
	if err := ValidateAnthology(dir); err == nil {
		t.Error("ValidateAnthology(dir) should fail")
	}
}

func TestValidateLogFormat(t *testing.T) {
	for _, f := range append([]string{""}, ValidLogFormats...) {
		if err := ValidateLogFormat(f); err != nil {
			t.Errorf("ValidateLogFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateLogFormat("logfmt"); err == nil {
		t.Error("ValidateLogFormat(logfmt) should fail")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"~/cache.db", filepath.Join(home, "cache.db")},
		{"/abs/cache.db", "/abs/cache.db"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
