package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"donor-analytics/internal/health"
)

func newProbeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Run one database health check and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := rt.openDB()
			if err != nil {
				return err
			}
			defer pair.Close() //nolint:errcheck

			mon := health.New(health.NewSQLProber(pair.Read), health.Config{
				ProbeTimeout: rt.cfg.Monitoring.HealthProbeTimeout,
			}, rt.logger)
			res := mon.PerformHealthCheck(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Healthy {
				return errors.New("database unhealthy")
			}
			return nil
		},
	}
}
