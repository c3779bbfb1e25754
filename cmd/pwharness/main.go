// Package main provides the pwharness command, a thin shell over the harness
// packages for logging in ahead of a test run, inspecting engine resolution
// and poking the API with the same token the tests use.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/pwharness/pkg/browser"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	// ^C cancels whatever is in flight
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, os.Args[1:], os.Stdout); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Run executes the command line in args, writing results to out.
func Run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{
		inputs: browser.Inputs{Args: args, Getenv: os.Getenv},
	}

	cmd := &cobra.Command{
		Use:                "pwharness",
		Short:              "Browser login and API token tooling for playwright test runs",
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&a.project, "project", "", "Browser engine: chromium, firefox or webkit")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Write debug lines to the log file")

	cmd.SetArgs(args)
	cmd.SetOut(out)

	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newOpenCommand(a))
	cmd.AddCommand(newEnvCommand(a))
	cmd.AddCommand(newTokenCommand(a))
	cmd.AddCommand(newRequestCommand(a))

	err := cmd.ExecuteContext(ctx)
	// teardown is skipped by cobra when RunE fails
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("Error:"), err.Error())
}
