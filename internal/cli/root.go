// Package cli implements the pitwall command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pitwall CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the CLI with args and returns the process exit code. Command
// errors are reported on stderr, or as a JSON response on stdout when
// --format json is set.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	// Errors cobra raises itself (unknown command, wrong arguments) are
	// command errors.
	code := ExitCommandError
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	out := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		if code == ExitFailure {
			// The command's JSON response already describes the failure.
			return code
		}
		out.Writer = stdout
	}
	out.Error(errorCode(code), err.Error(), nil)
	return code
}

func errorCode(exitCode int) string {
	if exitCode == ExitFailure {
		return "E_FAILED"
	}
	return "E_COMMAND"
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pitwall",
		Short:         "pitwall - race championship server",
		Long:          "Manage championships, run sessions lap by lap and replay race weekend scenarios.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				setupLogger(slog.LevelDebug)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setupLogger installs the process-wide text logger on stderr.
func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// formatter returns an output formatter writing to the command's streams.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
