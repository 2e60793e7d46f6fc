package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/weekplan/internal/config"
	"github.com/example/weekplan/internal/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "weekplan",
	Short: "Plan a week of work across projects",
	Long: `weekplan builds a weekly plan from your projects, goals and tasks.

It splits your capacity across projects by allocation percentage, asks an
advisory model which tasks to work on, checks every proposal against your
real task list and reports overload and balance.

WORKFLOW:
  1. weekplan seed fixture.yaml
  2. weekplan plan --user u1 --week 2024-01-01

EXAMPLES:
  # Plan next week with 40 hours of capacity
  weekplan plan --user u1 --capacity 40

  # Override allocations and keep one recurring commitment
  weekplan plan --user u1 --alloc p1=70 --alloc p2=30 --recurring r1

  # Plan offline using the proposal stored in a fixture
  weekplan plan --user u1 --fixture fixture.yaml

  # Ask a running server instead of planning locally
  weekplan plan --user u1 --remote localhost:50051`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log planner activity to stderr")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration and builds a console logger. Without
// --verbose only warnings are logged.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg.Log.Format = "console"
	if verbose {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
