package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pitwall/internal/config"
	"github.com/roach88/pitwall/internal/store"
)

// MigrateResult is the output of the migrate command.
type MigrateResult struct {
	DBPath        string `json:"db_path"`
	SchemaVersion int    `json:"schema_version"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Create the database if needed, apply the schema and report its version.

Examples:
  pitwall migrate
  pitwall migrate --db ./season.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			if dbPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid configuration", err)
				}
				dbPath = cfg.DBPath
			}
			out.VerboseLog("Opening %s", dbPath)

			st, err := store.Open(dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			version, err := st.SchemaVersion(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read schema version", err)
			}

			if out.Format == "json" {
				return out.Success(MigrateResult{DBPath: dbPath, SchemaVersion: version})
			}
			return out.Success(fmt.Sprintf("%s: schema version %d", dbPath, version))
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database file (default from PITWALL_DB)")

	return cmd
}
