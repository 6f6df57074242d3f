package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "prettybib"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Environment variables that override the config file.
const (
	EnvDBpediaEndpoint = "PRETTYBIB_DBPEDIA_ENDPOINT"
	EnvOpenLibraryURL  = "PRETTYBIB_OPENLIBRARY_URL"
	EnvContact         = "PRETTYBIB_CONTACT"
	EnvCachePath       = "PRETTYBIB_CACHE_PATH"
)

// globalConfigCache caches the config loaded from the default path.
var globalConfigCache *Config

// DefaultPath returns the path to the user config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/prettybib/config.yml.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the configuration at path, or at DefaultPath when path is
// empty. A missing file yields the defaults; values not set in the file keep
// their defaults. Environment overrides are applied and the result is
// validated.
func Load(path string) (*Config, error) {
	if path == "" {
		if globalConfigCache != nil {
			return globalConfigCache, nil
		}
		cfg, err := load(DefaultPath(), false)
		if err != nil {
			return nil, err
		}
		globalConfigCache = cfg
		return cfg, nil
	}
	return load(path, true)
}

func load(path string, mustExist bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !mustExist:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()

	cfg.Enrich.CachePath = ExpandPath(cfg.Enrich.CachePath)
	for i, p := range cfg.Anthologies {
		cfg.Anthologies[i] = ExpandPath(p)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResetGlobalConfigCache clears the cached config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// applyEnv lets environment variables (including ones from .env) win over
// the config file.
func (c *Config) applyEnv() {
	c.Enrich.DBpediaEndpoint = GetConfigValue(EnvDBpediaEndpoint, c.Enrich.DBpediaEndpoint)
	c.Enrich.OpenLibraryURL = GetConfigValue(EnvOpenLibraryURL, c.Enrich.OpenLibraryURL)
	c.Enrich.Contact = GetConfigValue(EnvContact, c.Enrich.Contact)
	c.Enrich.CachePath = GetConfigValue(EnvCachePath, c.Enrich.CachePath)
}

// GetConfigValue returns the environment variable if set, else the config value.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// YAML renders the configuration as it would appear in a config file.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return string(data), nil
}

// HelpfulConfigMessage describes where the config file lives.
func HelpfulConfigMessage() string {
	configPath := DefaultPath()
	return fmt.Sprintf(`Configuration is read from %s (missing file = defaults).

To create one:
  mkdir -p %s
  prettybib config show > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
