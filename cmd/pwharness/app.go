package main

import (
	"errors"
	"fmt"

	"github.com/entrhq/pwharness/pkg/apiclient"
	"github.com/entrhq/pwharness/pkg/auth"
	"github.com/entrhq/pwharness/pkg/browser"
	"github.com/entrhq/pwharness/pkg/config"
	"github.com/entrhq/pwharness/pkg/fixture"
	"github.com/entrhq/pwharness/pkg/logging"
	"github.com/entrhq/pwharness/pkg/transport"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	project    string
	verbose    bool

	inputs browser.Inputs

	cfg      *config.Config
	logger   *logging.Logger
	doer     transport.Doer
	launcher *browser.Launcher
	closed   bool
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Verbose = true
	}
	a.cfg = cfg

	logger, err := logging.NewLogger("cli", logging.Options{
		Dir:     cfg.Logging.Dir,
		Verbose: cfg.Logging.Verbose,
	})
	// on error logger is a stderr fallback, keep going with it
	if err != nil {
		printWarning(cmd.ErrOrStderr(), "file logging disabled: %v", err)
	}
	a.logger = logger
	a.logger.Infof("pwharness %s: %s", version, cmd.CommandPath())

	doer, err := transport.NewHTTPDoer(transport.Options{
		Timeout: cfg.HTTP.Timeout,
		Logger:  logger.Named("http"),
	})
	if err != nil {
		return err
	}
	a.doer = doer
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	return a.close()
}

func (a *app) close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if a.launcher != nil {
		errs = append(errs, a.launcher.Stop())
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}

// engineName is the explicit engine for this invocation: the --project flag,
// then the config file. Empty defers to the environment.
func (a *app) engineName() string {
	if a.project != "" {
		return a.project
	}
	return a.cfg.Browser.Engine
}

// startLauncher starts playwright once per invocation.
func (a *app) startLauncher() (*browser.Launcher, error) {
	if a.launcher != nil {
		return a.launcher, nil
	}
	l, err := browser.NewLauncher(browser.LauncherOptions{
		Install: a.cfg.Browser.Install,
		Inputs:  &a.inputs,
		Logger:  a.logger.Named("browser"),
	})
	if err != nil {
		return nil, err
	}
	a.launcher = l
	return l, nil
}

// session builds a Session. Commands that never open a browser pass
// withBrowser false and playwright is not started.
func (a *app) session(withBrowser bool) (*auth.Session, error) {
	var launcher auth.Launcher
	if withBrowser {
		l, err := a.startLauncher()
		if err != nil {
			return nil, err
		}
		launcher = l
	}

	s := auth.NewSession(launcher, a.doer, fixture.NewFile(a.cfg.FixturePath), auth.Config{
		StateDir:       a.cfg.StateDir,
		BaseURL:        a.cfg.BaseURL,
		Inputs:         &a.inputs,
		LoginSelectors: a.cfg.Login,
		TokenFields:    a.cfg.TokenFields,
		Logger:         a.logger.Named("auth"),
	})
	if a.cfg.APIURL != "" {
		s.SetAPICredentials(a.cfg.APIURL, a.cfg.LoginPath)
	}
	return s, nil
}

func (a *app) apiClient(s *auth.Session) (*apiclient.Client, error) {
	if a.cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url is not configured, set it in the config file or %s", config.EnvAPIURL)
	}
	return apiclient.New(a.cfg.APIURL,
		apiclient.WithDoer(a.doer),
		apiclient.WithTokenSource(s),
		apiclient.WithFixture(fixture.NewFile(a.cfg.FixturePath)),
		apiclient.WithTokenFields(a.cfg.TokenFields),
		apiclient.WithLogger(a.logger.Named("api")),
	)
}
