package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"donor-analytics/internal/db"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := rt.openDB()
			if err != nil {
				return err
			}
			defer pair.Close() //nolint:errcheck

			v, err := db.RunMigrations(cmd.Context(), pair.Write, rt.logger)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"schema_version": v})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return err
		},
	}
}
