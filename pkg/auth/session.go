// Package auth performs the one-time interactive login that produces a
// per-engine session state file, opens browsers pre-loaded with that state,
// and owns the API bearer token cache used by API tests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pwharness/pkg/browser"
	"github.com/entrhq/pwharness/pkg/logging"
	"github.com/entrhq/pwharness/pkg/pages"
	"github.com/entrhq/pwharness/pkg/token"
	"github.com/entrhq/pwharness/pkg/transport"
)

// Credentials identify the user logging in through the web form. They are
// never written to disk.
type Credentials struct {
	BaseURL  string
	UserName string
	Password string
}

// Launcher starts a browser for an engine.
type Launcher interface {
	Launch(e browser.Engine, headless bool) (playwright.Browser, error)
}

// Environment is a browser opened with a saved session state. The caller owns it.
type Environment struct {
	Engine  browser.Engine
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page
	Pages   *pages.Registry
}

// Config configures a Session.
type Config struct {
	// StateDir holds the session state files, default auth-states
	StateDir string

	// BaseURL is used for the page objects of test environments
	BaseURL string

	// Inputs resolve engine names, default the process inputs
	Inputs *browser.Inputs

	LoginSelectors pages.LoginSelectors

	// TokenFields override the token field candidates
	TokenFields []string

	Logger *logging.Logger
}

// Session owns one browser login flow and one API token cache. It is not
// safe for concurrent use; give each test worker its own Session.
type Session struct {
	launcher  Launcher
	tokens    *token.Cache
	stateDir  string
	baseURL   string
	inputs    browser.Inputs
	selectors pages.LoginSelectors
	logger    *logging.Logger
}

// NewSession creates a session. Tokens are fetched through doer with the
// payload from fixture.
func NewSession(launcher Launcher, doer transport.Doer, fixture token.Loader, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.StateDir == "" {
		cfg.StateDir = browser.DefaultStateDir
	}
	inputs := browser.InputsFromProcess()
	if cfg.Inputs != nil {
		inputs = *cfg.Inputs
	}

	return &Session{
		launcher: launcher,
		tokens: token.NewCache(doer, fixture, token.Options{
			Fields: cfg.TokenFields,
			Logger: cfg.Logger,
		}),
		stateDir:  cfg.StateDir,
		baseURL:   cfg.BaseURL,
		inputs:    inputs,
		selectors: cfg.LoginSelectors.WithDefaults(),
		logger:    cfg.Logger,
	}
}

// Engine resolves an engine name the way every Session operation does.
func (s *Session) Engine(name string) browser.Engine {
	return browser.Resolve(name, s.inputs)
}

// StatePath returns the session state file for an engine name.
func (s *Session) StatePath(name string) string {
	return browser.StatePath(s.stateDir, s.Engine(name))
}

// Authenticate logs in through the web form in a headless browser and
// saves the resulting session state for the engine. It is attempted once.
// On failure the browser is closed and a *FlowError is returned.
func (s *Session) Authenticate(creds Credentials, engineName string) (err error) {
	engine := s.Engine(engineName)
	path := browser.StatePath(s.stateDir, engine)
	phase := PhaseLaunching

	var (
		b    playwright.Browser
		bctx playwright.BrowserContext
	)
	defer func() {
		if err == nil {
			return
		}
		// best-effort cleanup, never masks the original error
		if bctx != nil {
			_ = bctx.Close()
		}
		if b != nil {
			_ = b.Close()
		}
		s.logger.Errorf("authentication with %s failed while %s: %v", engine, phase, err)
		err = &FlowError{Engine: engine, Phase: phase, Err: err}
	}()

	if creds.BaseURL == "" {
		return errors.New("base URL is required")
	}

	s.logger.Infof("authenticating %s at %s with %s", creds.UserName, creds.BaseURL, engine)

	if b, err = s.launcher.Launch(engine, true); err != nil {
		return err
	}
	if bctx, err = b.NewContext(); err != nil {
		return err
	}
	page, err := bctx.NewPage()
	if err != nil {
		return err
	}

	phase = PhaseLoggingIn
	login := pages.NewLoginPage(page, creds.BaseURL, s.selectors)
	if err = login.Login(creds.UserName, creds.Password); err != nil {
		return err
	}
	if err = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return err
	}

	phase = PhasePersisting
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if _, err = bctx.StorageState(path); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	if err = bctx.Close(); err != nil {
		return err
	}
	bctx = nil
	if err = b.Close(); err != nil {
		return err
	}
	b = nil

	s.logger.Infof("saved %s session state to %s", engine, path)
	return nil
}

// SetupTestEnvironment opens a headed browser whose context is loaded from
// the engine's saved session state.
func (s *Session) SetupTestEnvironment(engineName string) (*Environment, error) {
	engine := s.Engine(engineName)
	path := browser.StatePath(s.stateDir, engine)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("session state for %s unavailable, authenticate first: %w", engine, err)
	}

	b, err := s.launcher.Launch(engine, false)
	if err != nil {
		return nil, err
	}
	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		StorageStatePath: playwright.String(path),
	})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to load session state %s: %w", path, err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s.logger.Debugf("opened %s test environment from %s", engine, path)
	return &Environment{
		Engine:  engine,
		Browser: b,
		Context: bctx,
		Page:    page,
		Pages:   pages.NewRegistry(page, s.baseURL, s.selectors),
	}, nil
}

// CleanupTestEnvironment closes the context and then the browser, whichever are set.
func (s *Session) CleanupTestEnvironment(env *Environment) error {
	if env == nil {
		return nil
	}
	var errs []error
	if env.Context != nil {
		if err := env.Context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if env.Browser != nil {
		if err := env.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Tokens exposes the session's token cache.
func (s *Session) Tokens() *token.Cache {
	return s.tokens
}

// SetAPICredentials sets the API base URL and login path used to fetch tokens.
func (s *Session) SetAPICredentials(baseURL, loginPath string) {
	s.tokens.Configure(baseURL, loginPath)
}

// HasAPICredentials reports whether SetAPICredentials configured a login endpoint.
func (s *Session) HasAPICredentials() bool {
	return s.tokens.Configured()
}

// APIToken returns the cached token, fetching it on the first call.
func (s *Session) APIToken(ctx context.Context) (string, error) {
	return s.tokens.Token(ctx)
}

// APIAuthHeaders returns {"Authorization": "Bearer <token>"}.
func (s *Session) APIAuthHeaders(ctx context.Context) (map[string]string, error) {
	return s.tokens.Headers(ctx)
}

// ClearAPIToken drops the cached token.
func (s *Session) ClearAPIToken() {
	s.tokens.Clear()
}

// ForceNewToken fetches a fresh token, bypassing and then replacing the cache.
func (s *Session) ForceNewToken(ctx context.Context) (string, error) {
	return s.tokens.Force(ctx)
}
