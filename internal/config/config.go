// Package config loads the citegraph configuration from
// ~/.config/citegraph/config.yml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration after file, environment and defaults
// are merged.
type Config struct {
	DBPath              string `yaml:"db_path,omitempty"`
	CrossrefMailto      string `yaml:"crossref_mailto,omitempty"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "citegraph"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DataDirName is the directory name under XDG_DATA_HOME for the database.
	DataDirName = "citegraph"
	// DBFile is the default database file name.
	DBFile = "citegraph.db"

	// DefaultFetchTimeoutSeconds bounds a single CrossRef request.
	DefaultFetchTimeoutSeconds = 10

	// EnvDBPath overrides db_path.
	EnvDBPath = "CITEGRAPH_DB"
	// EnvMailto overrides crossref_mailto.
	EnvMailto = "CROSSREF_MAILTO"
)

// Path returns where the config file is looked up. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/citegraph/config.yml.
func Path() string {
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

// DefaultDBPath returns where the database lives when db_path is not
// configured. Respects XDG_DATA_HOME, defaults to ~/.local/share.
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DBFile
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, DataDirName, DBFile)
}

// Load reads the config file, applies environment overrides and fills in
// defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := Path(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvMailto); v != "" {
		cfg.CrossrefMailto = v
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	} else {
		cfg.DBPath = ExpandTilde(cfg.DBPath)
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		cfg.FetchTimeoutSeconds = DefaultFetchTimeoutSeconds
	}

	return cfg, nil
}

// FetchTimeout returns the configured CrossRef request timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
