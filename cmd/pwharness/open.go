package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newOpenCommand(a *app) *cobra.Command {
	var injectToken bool

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the home page with the saved session and check it is still valid",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := a.session(true)
			if err != nil {
				return err
			}

			env, err := s.SetupTestEnvironment(a.engineName())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, s.CleanupTestEnvironment(env))
			}()

			if injectToken {
				if err := s.InjectToken(cmd.Context(), env.Context); err != nil {
					return err
				}
			}

			home := env.Pages.Home()
			if err := home.Goto(); err != nil {
				return err
			}
			title, err := home.Title()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printField(out, "engine", string(env.Engine))
			printField(out, "title", title)
			if home.OnLoginPage() {
				printWarning(out, "Session state for %s has expired, run login again", env.Engine)
				return nil
			}
			printSuccess(out, "Session state for %s is valid", env.Engine)
			return nil
		},
	}

	cmd.Flags().BoolVar(&injectToken, "inject-token", false, "Expose the API token to page scripts before navigating")

	return cmd
}
