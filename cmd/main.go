// Command econgpt serves the economic dashboard and its persona answers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/econgpt/internal/config"
	"github.com/okian/econgpt/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "econgpt",
		Short: "EconGPT - US macro indicators and simulated economists",
		Long: `EconGPT serves year-over-year inflation, unemployment and GDP growth
from a warehouse and lets visitors ask historical economists about them.

Configuration is read from defaults, the YAML file named by --config or
ECONGPT_CONFIG, and ECONGPT_* environment variables, in that order.

Examples:
  econgpt                                   # serve with defaults
  econgpt seed --quarters 120               # fill a local SQLite warehouse
  econgpt table --indicators INFLATION      # print the economic table
  econgpt ask --persona "Adam Smith (1723-1790)" "Is free trade good?"`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
		RunE: runServe,
	}
	root.PersistentFlags().StringP("config", "c", "", "YAML config file (overrides ECONGPT_CONFIG)")

	root.AddCommand(newServeCmd(), newTableCmd(), newAskCmd(), newSeedCmd())
	return root
}

type cfgKey struct{}

// setup loads configuration and initializes logging before any command.
func setup(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG", path); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cfgKey{}, cfg))
	return nil
}

// configFrom returns the configuration loaded by setup.
func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(cfgKey{}).(*config.Config); ok {
		return cfg
	}
	return config.New()
}
