package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/entrhq/pwharness/pkg/auth"
	"github.com/entrhq/pwharness/pkg/config"
	"github.com/spf13/cobra"
)

// Credential environment variables read when the flags are not given.
const (
	EnvUser     = "PWHARNESS_USER"
	EnvPassword = "PWHARNESS_PASSWORD"
)

func newLoginCommand(a *app) *cobra.Command {
	var user, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the web form and save the session state",
		Long: `Log in through the web form in a headless browser and save the
resulting session state under the state directory, one file per engine.
Tests then open browsers with "open" or SetupTestEnvironment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.BaseURL == "" {
				return fmt.Errorf("base_url is not configured, set it in the config file or %s", config.EnvBaseURL)
			}
			if user == "" {
				user = os.Getenv(EnvUser)
			}
			if password == "" {
				password = os.Getenv(EnvPassword)
			}
			if user == "" || password == "" {
				return errors.New("user and password are required")
			}

			s, err := a.session(true)
			if err != nil {
				return err
			}
			name := a.engineName()
			if err := s.Authenticate(auth.Credentials{
				BaseURL:  a.cfg.BaseURL,
				UserName: user,
				Password: password,
			}, name); err != nil {
				return err
			}

			printSuccess(cmd.OutOrStdout(), "Saved %s session to %s", s.Engine(name), s.StatePath(name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User name (default $"+EnvUser+")")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default $"+EnvPassword+")")

	return cmd
}
