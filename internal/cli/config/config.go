// Package config holds the ugel client's user settings, stored as YAML in
// ~/.config/ugel/config.yaml and overridable from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ugel-satipo/portal/internal/cli/credstore"
)

const (
	configDirName  = "ugel"
	configFileName = "config.yaml"

	DefaultAPIURL     = "http://localhost:8080"
	DefaultPortalAddr = "127.0.0.1:5173"
	DefaultLogLevel   = "warn"
)

// Environment overrides
const (
	EnvAPIURL          = "UGEL_API_URL"
	EnvCredentialStore = "UGEL_CREDENTIAL_STORE"
	EnvPortalAddr      = "UGEL_PORTAL_ADDR"
	EnvKeepSession     = "UGEL_KEEP_SESSION_ON_NETWORK_ERROR"
	EnvLogLevel        = "UGEL_LOG_LEVEL"
)

// Config represents the client configuration file
type Config struct {
	APIURL                    string `yaml:"api_url"`
	CredentialStore           string `yaml:"credential_store"`
	PortalAddr                string `yaml:"portal_addr"`
	KeepSessionOnNetworkError bool   `yaml:"keep_session_on_network_error"`
	LogLevel                  string `yaml:"log_level,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		APIURL:          DefaultAPIURL,
		CredentialStore: credstore.BackendFile,
		PortalAddr:      DefaultPortalAddr,
		LogLevel:        DefaultLogLevel,
	}
}

// Path returns ~/.config/ugel/config.yaml
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the default config file, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load for an explicit path
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvCredentialStore); v != "" {
		c.CredentialStore = v
	}
	if v := os.Getenv(EnvPortalAddr); v != "" {
		c.PortalAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvKeepSession); v != "" {
		keep, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvKeepSession, v, err)
		}
		c.KeepSessionOnNetworkError = keep
	}
	return nil
}

// Validate checks the values a client cannot start without
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an http(s) URL", c.APIURL)
	}

	switch c.CredentialStore {
	case "":
		c.CredentialStore = credstore.BackendFile
	case credstore.BackendFile, credstore.BackendKeyring:
	default:
		return fmt.Errorf("invalid credential_store %q: use %s or %s", c.CredentialStore, credstore.BackendFile, credstore.BackendKeyring)
	}

	if c.PortalAddr == "" {
		c.PortalAddr = DefaultPortalAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return nil
}

// StoreOptions returns the credential store selection. Keyring entries are
// scoped to the API host so two servers never share a session.
func (c *Config) StoreOptions() credstore.Options {
	opts := credstore.Options{Backend: c.CredentialStore}
	if u, err := url.Parse(c.APIURL); err == nil {
		opts.Account = u.Host
	}
	return opts
}

// Save writes cfg to path, creating the directory when needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
