package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/weekplan/cmd/weekplan/internal/ui"
	"github.com/example/weekplan/internal/fixture"
	"github.com/example/weekplan/internal/storage/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load projects, goals and tasks from a fixture",
	Long: `Load a YAML fixture into the configured database.

The fixture names one user and lists that user's projects with their goals
and tasks, plus recurring tasks. Records without an id get a generated one.
Everything is written in one transaction.

EXAMPLES:
  weekplan seed fixture.yaml
  weekplan --config weekplan.yaml seed fixture.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := fixture.Load(args[0])
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	n, err := fixture.Seed(ctx, store, f)
	if err != nil {
		return err
	}

	ui.PrintSuccess(out, fmt.Sprintf("Seeded %s for user %s", n, f.UserID))
	ui.PrintInfo(out, "Database: "+cfg.Storage.SQLitePath)
	return nil
}
