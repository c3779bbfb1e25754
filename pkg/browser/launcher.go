package browser

import (
	"fmt"
	"io"

	"github.com/entrhq/pwharness/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// Selection is a resolved engine together with the playwright handle that launches it.
type Selection struct {
	Name Engine
	Type playwright.BrowserType
}

// LauncherOptions configures NewLauncher.
type LauncherOptions struct {
	// Install downloads the driver and browsers before starting playwright
	Install bool

	// Inputs used to resolve engine names; zero value means the process inputs
	Inputs *Inputs

	Logger *logging.Logger
}

// Launcher owns the playwright driver and launches browsers for resolved engines.
type Launcher struct {
	playwright *playwright.Playwright
	inputs     Inputs
	logger     *logging.Logger
}

// NewLauncher starts playwright.
func NewLauncher(opts LauncherOptions) (*Launcher, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	inputs := InputsFromProcess()
	if opts.Inputs != nil {
		inputs = *opts.Inputs
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &Launcher{
		playwright: pw,
		inputs:     inputs,
		logger:     opts.Logger,
	}, nil
}

// Resolve resolves an engine name against the launcher's inputs.
func (l *Launcher) Resolve(name string) Engine {
	e := Resolve(name, l.inputs)
	if requested := RequestedName(name, l.inputs); requested != "" {
		if _, ok := ParseEngine(requested); !ok {
			l.logger.Debugf("unknown engine %q, using %s", requested, e)
		}
	}
	return e
}

// Select resolves an engine name to its launchable handle.
func (l *Launcher) Select(name string) Selection {
	e := l.Resolve(name)
	return Selection{Name: e, Type: l.browserType(e)}
}

func (l *Launcher) browserType(e Engine) playwright.BrowserType {
	switch e {
	case Firefox:
		return l.playwright.Firefox
	case WebKit:
		return l.playwright.WebKit
	default:
		return l.playwright.Chromium
	}
}

// Launch starts a browser for the engine. Errors come back from playwright unchanged.
func (l *Launcher) Launch(e Engine, headless bool) (playwright.Browser, error) {
	l.logger.Debugf("launching %s (headless=%t)", e, headless)
	return l.browserType(e).Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
}

// Stop shuts the playwright driver down.
func (l *Launcher) Stop() error {
	if err := l.playwright.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
