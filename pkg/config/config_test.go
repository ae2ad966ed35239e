package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/operion-canvas/pkg/config"
	"github.com/dukex/operion-canvas/pkg/editor"
	"github.com/dukex/operion-canvas/pkg/interaction"
	"github.com/dukex/operion-canvas/pkg/log"
	"github.com/dukex/operion-canvas/pkg/persistence/file"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "canvas.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.Autosave.Interval.Duration)
	assert.True(t, cfg.InteractionSettings().SnapToGrid)
	assert.InDelta(t, 20, cfg.InteractionSettings().GridSize, 0)
}

func TestParse(t *testing.T) {
	t.Parallel()

	data := []byte(`
[canvas]
snap_to_grid = false
grid_size = 25
fit_padding = 40

[autosave]
interval = "2m"

[catalog]
dir = "./catalog"
`)

	cfg, err := config.Parse(data, config.Default())
	require.NoError(t, err)
	assert.False(t, cfg.Canvas.SnapToGrid)
	assert.InDelta(t, 25, cfg.Canvas.GridSize, 0)
	assert.InDelta(t, 40, cfg.Canvas.FitPadding, 0)
	assert.True(t, cfg.Autosave.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Autosave.Interval.Duration)
	assert.Equal(t, "./catalog", cfg.Catalog.Dir)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "[canvas]\ngrid = 10\n"},
		{"zero grid", "[canvas]\ngrid_size = 0\n"},
		{"negative padding", "[canvas]\nfit_padding = -1\n"},
		{"bad duration", "[autosave]\ninterval = \"soon\"\n"},
		{"tiny interval", "[autosave]\ninterval = \"10ms\"\n"},
		{"not toml", "canvas = ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse([]byte(tt.data), config.Default())
			require.Error(t, err)
		})
	}

	_, err := config.Parse([]byte("[canvas]\ngrid = 10\n"), config.Default())
	require.ErrorIs(t, err, config.ErrUnknownKeys)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "canvas.toml")

	cfg := config.Default()
	cfg.Canvas.GridSize = 10
	cfg.Autosave.Interval = config.Duration{Duration: 45 * time.Second}

	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_ReportsWriteFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.Error(t, config.Save(dir, config.Default()))

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	require.Error(t, config.Save(filepath.Join(blocker, "canvas.toml"), config.Default()))
}

func TestSessionOptions(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(log.Discard())
	reg.RegisterDefaultNodeTypes()

	store := file.NewPersistence(t.TempDir())

	cfg := config.Default()
	cfg.Canvas.SnapToGrid = false
	cfg.Canvas.GridSize = 10
	cfg.Autosave.Interval = config.Duration{Duration: 45 * time.Second}

	session := editor.New(reg, "graph-1", append(cfg.SessionOptions(), editor.WithStore(store))...)
	require.NotNil(t, session.Saver())
	assert.Equal(t, 45*time.Second, session.Saver().Interval())
	session.Read(func(m *interaction.Machine) {
		assert.Equal(t, cfg.InteractionSettings(), m.Settings())
	})

	cfg.Autosave.Enabled = false
	session = editor.New(reg, "graph-2", append(cfg.SessionOptions(), editor.WithStore(store))...)
	assert.Nil(t, session.Saver())
}
