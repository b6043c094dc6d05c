package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pitwall/internal/harness"
)

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Errors []string             `json:"errors,omitempty"`
	Trace  []harness.TraceEvent `json:"trace,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its report",
		Long: `Run a race weekend scenario against a fresh in-memory store and print
the trace and lap-by-lap standings.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed
  2 - Command error (missing or invalid scenario file)

Examples:
  pitwall run testdata/scenarios/monza_weekend.yaml
  pitwall run testdata/scenarios/monza_weekend.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)

			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load scenario", err)
			}
			out.VerboseLog("Running %s: %s", scenario.Name, scenario.Description)

			result, err := harness.Run(cmd.Context(), scenario)
			if err != nil {
				return WrapExitError(ExitCommandError, "scenario execution failed", err)
			}

			if out.Format == "json" {
				if err := out.Success(ScenarioResult{
					Name:   scenario.Name,
					Pass:   result.Pass,
					Errors: result.Errors,
					Trace:  result.Trace,
				}); err != nil {
					return err
				}
			} else {
				cmd.OutOrStdout().Write(harness.Report(scenario.Name, result))
			}

			if !result.Pass {
				return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
			}
			return nil
		},
	}
	return cmd
}
