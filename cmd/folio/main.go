package main

import (
	"os"

	"github.com/memberfolio/folio/internal/cli"
	"github.com/memberfolio/folio/internal/ui"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		ui.SetOutput(os.Stderr)
		ui.Error(err.Error())
		os.Exit(1)
	}
}
