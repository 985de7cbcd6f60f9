package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugel-satipo/portal/internal/cli/credstore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIURL, EnvCredentialStore, EnvPortalAddr, EnvKeepSession, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://api.ugelsatipo.gob.pe/
credential_store: keyring
portal_addr: 127.0.0.1:9000
keep_session_on_network_error: true
`), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.ugelsatipo.gob.pe", cfg.APIURL, "trailing slash trimmed")
	assert.Equal(t, credstore.BackendKeyring, cfg.CredentialStore)
	assert.Equal(t, "127.0.0.1:9000", cfg.PortalAddr)
	assert.True(t, cfg.KeepSessionOnNetworkError)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://file:8080\ncredential_store: keyring\n"), 0o644))

	t.Setenv(EnvAPIURL, "http://env:9090")
	t.Setenv(EnvCredentialStore, "file")
	t.Setenv(EnvKeepSession, "true")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9090", cfg.APIURL)
	assert.Equal(t, credstore.BackendFile, cfg.CredentialStore)
	assert.True(t, cfg.KeepSessionOnNetworkError)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad url", env: map[string]string{EnvAPIURL: "localhost:8080"}},
		{name: "bad store", env: map[string]string{EnvCredentialStore: "sqlite"}},
		{name: "bad bool", env: map[string]string{EnvKeepSession: "maybe"}},
		{name: "bad yaml", file: "api_url: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.yaml")
			if tt.file != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}

			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.APIURL = "http://api.local:8080"
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPathUsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "ugel", "config.yaml"), path)
}

func TestStoreOptionsScopesKeyringToHost(t *testing.T) {
	cfg := Default()
	cfg.APIURL = "https://api.ugelsatipo.gob.pe"
	cfg.CredentialStore = credstore.BackendKeyring

	opts := cfg.StoreOptions()
	assert.Equal(t, credstore.BackendKeyring, opts.Backend)
	assert.Equal(t, "api.ugelsatipo.gob.pe", opts.Account)
}
