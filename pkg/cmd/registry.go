// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/operion-canvas/pkg/registry"
)

// NewRegistry returns the built-in palette extended by the catalogs in catalogDir.
// An empty catalogDir loads nothing extra.
func NewRegistry(logger *slog.Logger, catalogDir string) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodeTypes()

	if catalogDir == "" {
		return reg, nil
	}

	_, err := reg.LoadCatalogDir(catalogDir)
	if err != nil {
		return nil, err
	}

	return reg, nil
}
