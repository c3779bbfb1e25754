package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrhq/pwharness/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "/login", cfg.LoginPath)
	assert.Equal(t, "auth-states", cfg.StateDir)
	assert.Equal(t, []string{"token", "access_token", "jwt", "accessToken"}, cfg.TokenFields)
	assert.Equal(t, token.DefaultFields, cfg.TokenFields)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.NotEmpty(t, cfg.Login.Username)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("reads yaml over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pwharness.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://app.example.com
api_url: https://api.example.com
login_path: /auth/login
token_fields: [jwt]
browser:
  engine: firefox
http:
  timeout: 5s
login:
  username: "#email"
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://app.example.com", cfg.BaseURL)
		assert.Equal(t, "https://api.example.com", cfg.APIURL)
		assert.Equal(t, "/auth/login", cfg.LoginPath)
		assert.Equal(t, []string{"jwt"}, cfg.TokenFields)
		assert.Equal(t, "firefox", cfg.Browser.Engine)
		assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
		assert.Equal(t, "#email", cfg.Login.Username)
		// unset selectors keep their defaults
		assert.NotEmpty(t, cfg.Login.Password)
		assert.Equal(t, DefaultStateDir, cfg.StateDir)
	})

	t.Run("empty path uses defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultLoginPath, cfg.LoginPath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pwharness.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_url: https://file.example.com\n"), 0o600))
		t.Setenv(EnvAPIURL, "https://env.example.com")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.APIURL)
	})

	t.Run("empty environment values keep file settings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pwharness.yaml")
		require.NoError(t, os.WriteFile(path, []byte("base_url: https://app.example.com\nfixture_path: creds.yaml\n"), 0o600))
		t.Setenv(EnvBaseURL, "")
		t.Setenv(EnvAPIURL, "")
		t.Setenv(EnvFixture, "")
		t.Setenv("PWHARNESS_HEADLESS", "")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com", cfg.BaseURL)
		assert.Empty(t, cfg.APIURL)
		assert.Equal(t, "creds.yaml", cfg.FixturePath)
	})

	t.Run("invalid url rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pwharness.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_url: ftp://x\n"), 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_url")
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("empty values ignored", func(t *testing.T) {
		cfg := Default()
		cfg.BaseURL = "https://keep.example.com"
		cfg.APIURL = "https://api.example.com"
		cfg.ApplyEnv(lookupFrom(map[string]string{EnvBaseURL: "", EnvAPIURL: "", EnvFixture: ""}))
		assert.Equal(t, "https://keep.example.com", cfg.BaseURL)
		assert.Equal(t, "https://api.example.com", cfg.APIURL)
		assert.Equal(t, Default().FixturePath, cfg.FixturePath)
	})

	t.Run("fixture path", func(t *testing.T) {
		cfg := Default()
		cfg.ApplyEnv(lookupFrom(map[string]string{EnvFixture: "/tmp/creds.json"}))
		assert.Equal(t, "/tmp/creds.json", cfg.FixturePath)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "relative login path", mutate: func(c *Config) { c.LoginPath = "login" }, wantErr: "login_path"},
		{name: "base url without host", mutate: func(c *Config) { c.BaseURL = "https://" }, wantErr: "base_url"},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTP.Timeout = -time.Second }, wantErr: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
