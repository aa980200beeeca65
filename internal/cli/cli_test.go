package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &testutil.SafeBuffer{}
	root := NewRootCmd(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseParams(t *testing.T) {
	t.Run("valid pairs", func(t *testing.T) {
		params, err := ParseParams([]string{"graph=ring", "nodes=12", "note=a=b"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"graph": "ring",
			"nodes": "12",
			"note":  "a=b",
		}, params, "everything after the first '=' belongs to the value")
	})

	t.Run("empty value is allowed", func(t *testing.T) {
		params, err := ParseParams([]string{"label="})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"label": ""}, params)
	})

	t.Run("no arguments yields an empty map", func(t *testing.T) {
		params, err := ParseParams(nil)
		require.NoError(t, err)
		assert.Empty(t, params)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := ParseParams([]string{"nodes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KEY=VALUE")
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := ParseParams([]string{"=12"})
		require.Error(t, err)
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := ParseParams([]string{"nodes=12", "nodes=13"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "twice")
	})
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "taskgridgo")
	assert.Contains(t, out, version)
}

func TestTasksCmd_ListsBuiltinKinds(t *testing.T) {
	out, err := execute(t, "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "create_graph")
	assert.Contains(t, out, "compute_controllability")
	assert.Contains(t, out, "plot_controllability")
}

func TestRunCmd_RequiresATask(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
}

func TestRunCmd_RejectsNonLocalScheduler(t *testing.T) {
	_, err := execute(t, "run", "create_graph", "--scheduler", "central")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "central")
}

func TestRunCmd_RejectsMalformedParams(t *testing.T) {
	_, err := execute(t, "run", "create_graph", "nodes")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunCmd_UnknownKindIsAConfigError(t *testing.T) {
	base := t.TempDir()
	_, err := execute(t, "run", "no_such_task",
		"--data-dir", filepath.Join(base, "data"),
		"--figure-dir", filepath.Join(base, "figures"))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunCmd_ExecutesThePipeline(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")

	out, err := execute(t, "run", "create_graph", "graph=line", "nodes=4",
		"--data-dir", dataDir,
		"--figure-dir", filepath.Join(base, "figures"))
	require.NoError(t, err, out)

	_, statErr := os.Stat(filepath.Join(dataDir, "graph-line-n4-s42.yaml"))
	assert.NoError(t, statErr)
	assert.Contains(t, out, "SUCCESS")
}

func TestRunCmd_ConfigFileDefaultsSitUnderCLIParams(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	cfgPath := filepath.Join(base, "pipeline.hcl")
	cfgHCL := `
data_dir   = "` + dataDir + `"
figure_dir = "` + filepath.Join(base, "figures") + `"

task "create_graph" {
  params = {
    graph = "ring"
    nodes = "16"
  }
}
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgHCL), 0o644))

	// nodes on the command line overrides the file default; graph comes
	// from the file.
	out, err := execute(t, "run", "create_graph", "nodes=6", "--config", cfgPath)
	require.NoError(t, err, out)

	_, statErr := os.Stat(filepath.Join(dataDir, "graph-ring-n6-s42.yaml"))
	assert.NoError(t, statErr)
}

func TestRunCmd_FailureMapsToExitCodeOne(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission bits are not enforced")
	}
	base := t.TempDir()
	// An unwritable data dir passes declaration and fails at run time, so
	// the failure surfaces as a task failure (exit 1), not a usage error.
	dataDir := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o555))
	t.Cleanup(func() { os.Chmod(dataDir, 0o755) })

	_, err := execute(t, "run", "create_graph", "graph=line", "nodes=4",
		"--data-dir", dataDir,
		"--figure-dir", filepath.Join(base, "figures"))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestHistoryCmd_RequiresADatabase(t *testing.T) {
	_, err := execute(t, "history")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestHistoryCmd_ListsRecordedRuns(t *testing.T) {
	base := t.TempDir()
	dbPath := filepath.Join(base, "history.db")

	out, err := execute(t, "run", "create_graph", "graph=line", "nodes=4",
		"--data-dir", filepath.Join(base, "data"),
		"--figure-dir", filepath.Join(base, "figures"),
		"--history-db", dbPath)
	require.NoError(t, err, out)

	out, err = execute(t, "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "create_graph(graph=line,nodes=4)")
}

func TestExitError_ImplementsError(t *testing.T) {
	err := error(&ExitError{Code: 2, Message: "bad flag"})
	assert.Equal(t, "bad flag", err.Error())

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}
