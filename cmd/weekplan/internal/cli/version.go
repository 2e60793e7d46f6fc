package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/weekplan/cmd/weekplan/internal/ui"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintInfo(cmd.OutOrStdout(), fmt.Sprintf("weekplan %s", version))
	},
}
