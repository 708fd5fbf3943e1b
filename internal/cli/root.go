package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	open Opener
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand builds certctl with services opened from the environment.
func NewRootCommand() *cobra.Command {
	return newRootCommand(OpenFromEnv)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "certctl",
		Short: "Operate the carbon-credit certificate registry",
		Long:  "Issue, list, verify, revoke and export government verification certificates, and inspect farmer credit balances.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewIssueCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewRevokeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewCreditsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withApp opens the services for one command run and closes them afterwards.
func (o *RootOptions) withApp(ctx context.Context, fn func(*App) error) error {
	app, err := o.open(ctx)
	if err != nil {
		return fmt.Errorf("open services: %w", err)
	}
	defer func() {
		if app.Close != nil {
			_ = app.Close()
		}
	}()
	return fn(app)
}
