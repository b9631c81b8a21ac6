package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/staticeval/internal/chart"
	"github.com/hailam/staticeval/internal/config"
	"github.com/hailam/staticeval/internal/eval"
)

const traceConfig = `
mode = "blend"

engine {
  path  = "/opt/stockfish7"
  trace = true
}

output {
  dir = "charts"
}

cache {
  disabled = true
}
`

// resolveConfig parses args the way a subcommand does and returns the resolved
// configuration.
func resolveConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	f := &flags{}
	cmd := &cobra.Command{Use: "staticeval"}
	f.bind(cmd.PersistentFlags())
	require.NoError(t, cmd.ParseFlags(args))
	return f.resolve(cmd)
}

func TestResolveDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := resolveConfig(t)
	require.NoError(t, err)
	assert.Equal(t, "stockfish", cfg.Engine.Path)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.Equal(t, chart.HTML, cfg.Format())
	assert.False(t, cfg.Engine.Trace)
	assert.False(t, cfg.Cache.Disabled)
}

func TestResolveDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte(traceConfig), 0644))

	t.Run("file values apply", func(t *testing.T) {
		cfg, err := resolveConfig(t)
		require.NoError(t, err)
		assert.Equal(t, "/opt/stockfish7", cfg.Engine.Path)
		assert.Equal(t, eval.Blend, cfg.EvalMode())
		assert.Equal(t, "charts", cfg.Output.Dir)
		assert.True(t, cfg.Engine.Trace)
		assert.True(t, cfg.Cache.Disabled)
	})

	t.Run("flags override file", func(t *testing.T) {
		cfg, err := resolveConfig(t,
			"--trace=false", "--no-cache=false",
			"--engine", "/usr/bin/sf", "-m", "split", "-o", "out",
			"--format", "png", "--archive", "runs.db", "--log-level", "warn",
		)
		require.NoError(t, err)
		assert.False(t, cfg.Engine.Trace)
		assert.False(t, cfg.Cache.Disabled)
		assert.Equal(t, "/usr/bin/sf", cfg.Engine.Path)
		assert.Equal(t, eval.Split, cfg.EvalMode())
		assert.Equal(t, "out", cfg.Output.Dir)
		assert.Equal(t, chart.PNG, cfg.Format())
		assert.Equal(t, "runs.db", cfg.Archive)
		assert.Equal(t, zerolog.WarnLevel, cfg.Level())
	})

	t.Run("unset flags keep file values", func(t *testing.T) {
		cfg, err := resolveConfig(t, "--format", "png")
		require.NoError(t, err)
		assert.True(t, cfg.Engine.Trace)
		assert.Equal(t, "charts", cfg.Output.Dir)
	})
}

func TestResolveExplicitConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "other.hcl")
	require.NoError(t, os.WriteFile(path, []byte(traceConfig), 0644))

	cfg, err := resolveConfig(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/stockfish7", cfg.Engine.Path)

	_, err = resolveConfig(t, "--config", filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	log := zerolog.Nop()
	root := newRootCmd(&log)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runRoot(t, "history", "--archive", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = runRoot(t, "history")
	require.Error(t, err, "history needs an archive")

	_, err = runRoot(t, "plot")
	require.EqualError(t, err, "no PGN file given")

	_, err = runRoot(t, "plot", "--mode", "sideways", "games.pgn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}
