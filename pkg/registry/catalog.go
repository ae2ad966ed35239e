package registry

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const catalogSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["node_types"],
	"properties": {
		"node_types": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "category"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"displayName": {"type": "string"},
					"category": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"handles": {
						"type": "object",
						"properties": {
							"inputs": {"type": "array", "items": {"type": "string", "minLength": 1}},
							"outputs": {"type": "array", "items": {"type": "string", "minLength": 1}}
						},
						"additionalProperties": false
					}
				}
			}
		}
	}
}`

// Catalog is a file listing node types, in JSON or YAML.
type Catalog struct {
	NodeTypes []models.NodeType `json:"node_types" yaml:"node_types"`
}

// ParseCatalog decodes catalog bytes. format is "json" or "yaml".
func ParseCatalog(data []byte, format string) (*Catalog, error) {
	var generic any

	switch format {
	case "yaml", "yml":
		err := yaml.Unmarshal(data, &generic)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
		}
	case "json":
		err := json.Unmarshal(data, &generic)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(catalogSchema), gojsonschema.NewGoLoader(generic))
	if err != nil {
		return nil, fmt.Errorf("failed to validate catalog: %w", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return nil, fmt.Errorf("catalog schema validation failed: %s", strings.Join(errors, "; "))
	}

	var catalog Catalog
	if format == "json" {
		err = json.Unmarshal(data, &catalog)
	} else {
		err = yaml.Unmarshal(data, &catalog)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return &catalog, nil
}

// LoadCatalog reads a catalog file and registers (or replaces) its types.
func (r *Registry) LoadCatalog(path string) (int, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	catalog, err := ParseCatalog(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return 0, fmt.Errorf("catalog %s: %w", path, err)
	}

	for _, nodeType := range catalog.NodeTypes {
		err := r.Replace(nodeType)
		if err != nil {
			return 0, fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	return len(catalog.NodeTypes), nil
}

// LoadCatalogDir loads every *.json, *.yaml and *.yml catalog in dir.
func (r *Registry) LoadCatalogDir(dir string) ([]string, error) {
	root := os.DirFS(dir)

	var files []string

	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := fs.Glob(root, pattern)
		if err != nil {
			return nil, err
		}

		files = append(files, matches...)
	}

	l := r.logger.With(slog.String("path", dir))
	l.Info("Loading node type catalogs", "files", len(files))

	loaded := make([]string, 0, len(files))

	for _, name := range files {
		count, err := r.LoadCatalog(filepath.Join(dir, name))
		if err != nil {
			return loaded, err
		}

		l.Debug("Loaded catalog", "file", name, "types", count)

		loaded = append(loaded, name)
	}

	return loaded, nil
}
