package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/taskgraph/internal/config"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "absent.json")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", cfg, "--log-level", "error"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestRunCommand(t *testing.T) {
	out := execute(t, "run", "--strategy", "sleep", "--workers", "2", "--workload", "spin", "--size", "8")
	assert.Contains(t, out, "[Parallel + Thread Pool + Sleep] spin:")
}

func TestBenchCommand(t *testing.T) {
	out := execute(t, "bench", "--workers", "2", "--workload", "fanin", "--size", "16", "--iterations", "1")
	for _, name := range []string{"Serial", "Parallel + Always Spawn", "Parallel + Thread Pool + Spin", "Parallel + Thread Pool + Sleep"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "workload=fanin size=16 groups=3 workers=2 iterations=1")
}

func TestGraphCommandWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "graph.json")
	execute(t, "graph", "--workers", "2", "--size", "4", "--independent", "6", "--out", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	groups, err := domain.UnmarshalSnapshot(data)
	require.NoError(t, err)
	require.Len(t, groups, 10)
	for _, g := range groups {
		assert.Equal(t, "complete", g.State)
	}
}

func TestRunCommandRejectsUnknownWorkload(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "x.json"), "run", "--workload", "raytrace"})
	assert.ErrorContains(t, root.Execute(), "unknown workload")
}

func newReloadApp(t *testing.T, args ...string) (*app, *cobra.Command) {
	t.Helper()
	a := &app{runID: "test"}
	cmd := &cobra.Command{Use: "bench"}
	a.bindFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	a.useConfig(config.DefaultConfig())
	return a, cmd
}

func TestReloadKeepsFlagOverrides(t *testing.T) {
	a, cmd := newReloadApp(t, "--workers", "4", "--size", "12", "--strategy", "spin")

	fromFile := config.DefaultConfig()
	fromFile.Engine.Workers = 9
	fromFile.Engine.Strategy = "serial"
	fromFile.Workload.Size = 500
	fromFile.Workload.Iterations = 7
	require.NoError(t, a.reload(cmd, fromFile))

	assert.Equal(t, 4, a.cfg.Engine.Workers)
	assert.Equal(t, "spin", a.cfg.Engine.Strategy)
	assert.Equal(t, 12, a.cfg.Workload.Size)
	assert.Equal(t, 7, a.cfg.Workload.Iterations, "fields without a flag follow the file")
}

func TestReloadRejectsInvalidResult(t *testing.T) {
	a, cmd := newReloadApp(t, "--workers", "40")
	before := a.cfg

	err := a.reload(cmd, config.DefaultConfig())
	assert.ErrorContains(t, err, "workers must be at most 32")
	assert.Same(t, before, a.cfg)
}
