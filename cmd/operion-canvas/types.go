package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dukex/operion-canvas/pkg/cmd"
	"github.com/dukex/operion-canvas/pkg/log"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/urfave/cli/v3"
)

func NewTypesCommand() *cli.Command {
	return &cli.Command{
		Name:    "types",
		Aliases: []string{"t"},
		Usage:   "List the node types available to graphs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "category",
				Usage: "Only list types of this category",
			},
			catalogFlag(),
			configFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			dir, err := catalogDir(command)
			if err != nil {
				return err
			}

			registry, err := cmd.NewRegistry(log.Discard(), dir)
			if err != nil {
				return err
			}

			types := registry.Types()
			if category := command.String("category"); category != "" {
				types = registry.TypesByCategory(models.CategoryType(category))
			}

			w := tabwriter.NewWriter(command.Root().Writer, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tCATEGORY\tINPUTS\tOUTPUTS")

			for _, nt := range types {
				handles := nt.EffectiveHandles()
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					nt.Name, nt.Category, strings.Join(handles.Inputs, ","), strings.Join(handles.Outputs, ","))
			}

			return w.Flush()
		},
	}
}
