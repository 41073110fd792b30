package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"donor-analytics/internal/config"
	"donor-analytics/internal/db"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if getOutputFormat(rootCmd) == "json" {
			_ = printJSON(os.Stdout, map[string]any{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// runtime carries the resolved configuration to subcommands.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

// openDB opens the write/read pool pair named by the configuration.
func (rt *runtime) openDB() (*db.Pair, error) {
	return db.OpenSQLitePair(rt.cfg.MetaDBPath, rt.cfg.ReadPoolSize)
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		output     string
		envFile    string
	)
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:           "donor-analytics",
		Short:         "Donor analytics API with database performance and health monitoring",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			// Precedence: flag > env > config file > default.
			if cmd.Flags().Changed("config") {
				if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
					return err
				}
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			applyFlagOverrides(cmd.Flags(), cfg)
			rt.cfg = cfg
			rt.logger = newLogger(cmd.ErrOrStderr(), cfg)
			for _, w := range cfg.Warnings {
				rt.logger.Warn(w)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	flags.String("db", "", "SQLite database path (overrides META_DB_PATH)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	rootCmd.AddCommand(newServeCmd(rt))
	rootCmd.AddCommand(newMigrateCmd(rt))
	rootCmd.AddCommand(newSeedCmd(rt))
	rootCmd.AddCommand(newProbeCmd(rt))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// applyFlagOverrides copies explicitly set flags onto cfg. Flags the
// command does not define are skipped.
func applyFlagOverrides(fs *pflag.FlagSet, cfg *config.Config) {
	overrides := map[string]*string{
		"db":        &cfg.MetaDBPath,
		"log-level": &cfg.LogLevel,
		"listen":    &cfg.ListenAddr,
	}
	for name, dst := range overrides {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
}

// newLogger builds the root logger: JSON in production, text otherwise.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
