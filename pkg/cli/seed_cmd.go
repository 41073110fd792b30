package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"donor-analytics/internal/app"
	"donor-analytics/internal/db"
)

func newSeedCmd(rt *runtime) *cobra.Command {
	var (
		count int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate an empty store with generated donations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			ctx := cmd.Context()
			pair, err := rt.openDB()
			if err != nil {
				return err
			}
			defer pair.Close() //nolint:errcheck

			if _, err := db.RunMigrations(ctx, pair.Write, rt.logger); err != nil {
				return err
			}
			a, err := app.New(ctx, app.Deps{Cfg: rt.cfg, DB: pair, Logger: rt.logger})
			if err != nil {
				return err
			}
			n, err := app.SeedDonations(ctx, a.Donations, count, seed, rt.logger)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"inserted":    n,
					"performance": a.Perf.PerformanceStatistics(),
				})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "inserted %d donations\n", n)
			return err
		},
	}
	cmd.Flags().IntVar(&count, "count", 1000, "Number of donations to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	return cmd
}
