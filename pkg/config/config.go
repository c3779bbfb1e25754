// Package config holds the harness configuration. A Config is assembled once
// at process start (defaults, then file, then environment) and passed down to
// the components that need it; nothing reads it from a global.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/entrhq/pwharness/pkg/fixture"
	"github.com/entrhq/pwharness/pkg/pages"
	"github.com/entrhq/pwharness/pkg/token"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings. Empty values are ignored.
const (
	EnvBaseURL = "PWHARNESS_BASE_URL"
	EnvAPIURL  = "PWHARNESS_API_URL"
	EnvFixture = "PWHARNESS_FIXTURE"
)

// Defaults
const (
	DefaultLoginPath   = "/login"
	DefaultStateDir    = "auth-states"
	DefaultHTTPTimeout = 30 * time.Second
)

// Config represents the harness configuration
type Config struct {
	// BaseURL of the web application; the login form lives at <BaseURL>/login
	BaseURL string `yaml:"base_url" json:"base_url"`

	// APIURL is the base for every RequestClient call and the token login endpoint
	APIURL string `yaml:"api_url" json:"api_url"`

	// LoginPath is appended to APIURL when fetching a bearer token
	LoginPath string `yaml:"login_path" json:"login_path"`

	// TokenFields are probed in order when extracting a token from the login response
	TokenFields []string `yaml:"token_fields" json:"token_fields"`

	// StateDir holds the per-engine session state files
	StateDir string `yaml:"state_dir" json:"state_dir"`

	// FixturePath is the credential fixture posted to the login endpoint
	FixturePath string `yaml:"fixture_path" json:"fixture_path"`

	Browser BrowserConfig `yaml:"browser" json:"browser"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Login overrides the selectors used by the login page object
	Login pages.LoginSelectors `yaml:"login" json:"login"`
}

// BrowserConfig controls playwright startup. Login always runs headless and
// test environments always open headed, so there is no mode setting.
type BrowserConfig struct {
	// Engine is an explicit engine name; empty defers to CLI and environment
	Engine string `yaml:"engine" json:"engine"`

	// Install downloads the playwright driver and browsers on startup
	Install bool `yaml:"install" json:"install"`
}

// HTTPConfig controls the API transport.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	Dir     string `yaml:"dir" json:"dir"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		LoginPath:   DefaultLoginPath,
		TokenFields: append([]string(nil), token.DefaultFields...),
		StateDir:    DefaultStateDir,
		FixturePath: fixture.DefaultPath,
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
		Login: pages.DefaultLoginSelectors(),
	}
}

// Load reads a YAML file over the defaults and then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvFixture); ok && v != "" {
		c.FixturePath = v
	}
}

// fillDefaults restores defaults a config file blanked out.
func (c *Config) fillDefaults() {
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if len(c.TokenFields) == 0 {
		c.TokenFields = append([]string(nil), token.DefaultFields...)
	}
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir
	}
	if c.FixturePath == "" {
		c.FixturePath = fixture.DefaultPath
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	c.Login = c.Login.WithDefaults()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL != "" {
		if err := validateURL(c.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("base_url: %w", err))
		}
	}
	if c.APIURL != "" {
		if err := validateURL(c.APIURL); err != nil {
			errs = append(errs, fmt.Errorf("api_url: %w", err))
		}
	}
	if c.LoginPath != "" && c.LoginPath[0] != '/' {
		errs = append(errs, fmt.Errorf("login_path must start with '/': %q", c.LoginPath))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout cannot be negative"))
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
