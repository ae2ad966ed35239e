package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukex/operion-canvas/pkg/cmd"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/log"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/urfave/cli/v3"
)

var (
	ErrMissingFile  = errors.New("a graph file is required")
	ErrInvalidGraph = errors.New("graph has validation errors")
)

// readDefinition accepts either a stored graph document or a bare definition.
func readDefinition(path string) (models.Definition, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return models.Definition{}, err
	}

	var doc struct {
		Definition *models.Definition `json:"definition"`
	}

	err = json.Unmarshal(data, &doc)
	if err != nil {
		return models.Definition{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if doc.Definition != nil {
		return *doc.Definition, nil
	}

	var def models.Definition

	err = json.Unmarshal(data, &def)
	if err != nil {
		return models.Definition{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return def, nil
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a graph definition file against the node type registry",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			catalogFlag(),
			configFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return ErrMissingFile
			}

			logger := log.Discard()

			dir, err := catalogDir(command)
			if err != nil {
				return err
			}

			registry, err := cmd.NewRegistry(logger, dir)
			if err != nil {
				return err
			}

			def, err := readDefinition(path)
			if err != nil {
				return err
			}

			out := command.Root().Writer

			model, err := graph.FromDefinition(registry, def)
			if err != nil {
				_, _ = fmt.Fprintf(out, "%s: cannot import: %v\n", path, err)

				return ErrInvalidGraph
			}

			issues := graph.ValidationErrors(model.Validate())
			if len(issues) == 0 {
				_, _ = fmt.Fprintf(out, "%s: ok (%d nodes, %d connections)\n", path, model.Len(), model.ConnectionCount())

				return nil
			}

			for _, issue := range issues {
				_, _ = fmt.Fprintf(out, "%s: %s\n", path, issue.Error())
			}

			return fmt.Errorf("%w: %d", ErrInvalidGraph, len(issues))
		},
	}
}
