package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukex/operion-canvas/pkg/cmd"
	"github.com/dukex/operion-canvas/pkg/log"
	"github.com/dukex/operion-canvas/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCommand()
	root.Writer = &out

	err := root.Run(context.Background(), append([]string{"operion-canvas"}, args...))

	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestTypesCommand(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "types", "--config", filepath.Join(t.TempDir(), "none.toml"), "--category", "trigger")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, out, "webhook_trigger")
	assert.NotContains(t, out, "http_request")
}

func TestTypesCommand_Catalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "custom.json", `{"node_types": [{"name": "slack_post", "category": "action",
		"handles": {"inputs": ["message"], "outputs": ["sent", "failed"]}}]}`)

	out, err := runCLI(t, "types", "--catalog", dir, "--category", "action")
	require.NoError(t, err)
	assert.Contains(t, out, "slack_post")
	assert.Contains(t, out, "sent,failed")
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "none.toml")

	valid := writeFile(t, dir, "valid.json", `{
		"id": "g1",
		"definition": {
			"nodes": [
				{"id": "a", "type": "manual_trigger", "position": {"x": 0, "y": 0}},
				{"id": "b", "type": "log", "position": {"x": 300, "y": 0}}
			],
			"connections": [{"source": "a", "target": "b"}]
		}
	}`)

	out, err := runCLI(t, "validate", "--config", cfg, valid)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (2 nodes, 1 connections)")

	unknown := writeFile(t, dir, "unknown.json", `{"nodes": [{"id": "a", "type": "teleport"}]}`)

	out, err = runCLI(t, "validate", "--config", cfg, unknown)
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, out, "teleport")

	broken := writeFile(t, dir, "broken.json", `{"nodes": [{"id": "a", "type": "log"}], "connections": [{"source": "a", "target": "a"}]}`)

	out, err = runCLI(t, "validate", "--config", cfg, broken)
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, out, "cannot import")

	_, err = runCLI(t, "validate", "--config", cfg)
	require.ErrorIs(t, err, ErrMissingFile)
}

func TestAPI_App(t *testing.T) {
	t.Parallel()

	registry, err := cmd.NewRegistry(log.Discard(), "")
	require.NoError(t, err)

	api := NewAPI(log.Discard(), file.NewPersistence(t.TempDir()), registry, nil, nil)
	app := api.App()

	tests := []struct {
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{path: "/", expectedStatus: http.StatusOK, expectedBody: "Operion Canvas API"},
		{path: "/livez", expectedStatus: http.StatusOK, expectedBody: "OK"},
		{path: "/graphs", expectedStatus: http.StatusOK, expectedBody: `"graphs":[]`},
		{path: "/graphs/missing", expectedStatus: http.StatusNotFound, expectedBody: "graph_not_found"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)

		resp, err := app.Test(req)
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		_ = resp.Body.Close()

		assert.Equal(t, tt.expectedStatus, resp.StatusCode, tt.path)
		assert.Contains(t, string(body), tt.expectedBody, tt.path)
	}
}
