package main

import (
	"os"

	"github.com/entrhq/pwharness/pkg/browser"
	"github.com/spf13/cobra"
)

func newEnvCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the resolved engine, state file and API endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(false)
			if err != nil {
				return err
			}

			name := a.engineName()
			requested := browser.RequestedName(name, a.inputs)
			if requested == "" {
				requested = "(none)"
			}
			state := s.StatePath(name)
			stateStatus := "present"
			if _, err := os.Stat(state); err != nil {
				stateStatus = "missing"
			}
			endpoint := s.Tokens().Endpoint()
			if endpoint == "" {
				endpoint = "(not configured)"
			}

			out := cmd.OutOrStdout()
			printField(out, "requested", requested)
			printField(out, "engine", string(s.Engine(name)))
			printField(out, "state", state+" ("+stateStatus+")")
			printField(out, "token url", endpoint)
			printField(out, "log", a.logger.LogPath())
			return nil
		},
	}
}
