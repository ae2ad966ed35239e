// Package main provides the operion-canvas command: the graph API server and offline
// graph tooling.
package main

import (
	"context"
	"os"

	"github.com/dukex/operion-canvas/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:                  "operion-canvas",
		Usage:                 "Store, validate and inspect workflow canvas graphs",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewServeCommand(),
			NewValidateCommand(),
			NewTypesCommand(),
		},
	}
}

func main() {
	err := newRootCommand().Run(context.Background(), os.Args)
	if err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
