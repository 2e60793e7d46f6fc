package main

import (
	"os"

	"github.com/example/weekplan/cmd/weekplan/internal/cli"
	"github.com/example/weekplan/cmd/weekplan/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		ui.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}
