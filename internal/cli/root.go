// Package cli defines the needle command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/bethropolis/needle/internal/app"
	"github.com/bethropolis/needle/internal/config"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates the needle command. The exit status of a run is
// stored in *status.
func NewRootCommand(cfg *config.Config, status *int) *cobra.Command {
	if Version != "dev" {
		cfg.Version = Version
	}
	cmd := &cobra.Command{
		Use:   "needle [flags] PATTERN [PATH ...]",
		Short: "Recursively search directories for a regex pattern",
		Long: `needle searches the files below each PATH (default: the current
directory) for lines matching PATTERN.

Files and directories matched by .gitignore, .ignore and .git/info/exclude
rules are skipped, as are hidden and binary files. Use -g to add globs,
-t to restrict the search to a file type and -u to lift the filters.

A YAML file of default flags is read from --config, $NEEDLE_CONFIG or
~/.config/needle/config.yaml; its keys are long flag names.`,
		Args:    cobra.ArbitraryArgs,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyDefaults(cmd, cfg); err != nil {
				return err
			}
			applyUnrestricted(cmd, cfg)
			if err := resolveArgs(cfg, args); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			*status = app.New(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr()).Run(cmd.Context())
			return nil
		},
	}
	bindFlags(cmd, cfg)
	return cmd
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	status := app.ExitMatch
	cmd := NewRootCommand(config.New(), &status)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "needle: %v\n", err)
		return app.ExitError
	}
	return status
}

// resolveArgs takes the pattern from the first argument unless -e or -f
// supplied one; the remaining arguments are paths.
func resolveArgs(cfg *config.Config, args []string) error {
	needPattern := len(cfg.Patterns) == 0 && len(cfg.PatternFiles) == 0 &&
		!cfg.ListFiles && !cfg.TypeList && !cfg.ShowVersion
	if needPattern {
		if len(args) == 0 {
			return fmt.Errorf("no pattern given (see --help)")
		}
		cfg.Patterns = []string{args[0]}
		args = args[1:]
	}
	cfg.Paths = args
	return nil
}

// applyUnrestricted expands -u: once disables ignore files, twice also
// searches hidden files, three times also binary files.
func applyUnrestricted(cmd *cobra.Command, cfg *config.Config) {
	n, _ := cmd.Flags().GetCount("unrestricted")
	if n >= 1 {
		cfg.NoIgnore = true
	}
	if n >= 2 {
		cfg.Hidden = true
	}
	if n >= 3 {
		cfg.Text = true
	}
}
