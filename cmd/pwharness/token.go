package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCommand(a *app) *cobra.Command {
	var (
		force   bool
		headers bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch an API token by posting the credential fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(false)
			if err != nil {
				return err
			}

			fetch := s.APIToken
			if force {
				fetch = s.ForceNewToken
			}
			tok, err := fetch(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if headers {
				h, err := s.APIAuthHeaders(cmd.Context())
				if err != nil {
					return err
				}
				for k, v := range h {
					fmt.Fprintf(out, "%s: %s\n", k, v)
				}
				return nil
			}

			_, issued, _ := s.Tokens().Cached()
			a.logger.Debugf("token issued by %s at %s", issued.Endpoint, issued.IssuedAt.Format(time.RFC3339))
			fmt.Fprintln(out, tok)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the cache and fetch a new token")
	cmd.Flags().BoolVar(&headers, "headers", false, "Print the Authorization header instead of the bare token")

	return cmd
}
