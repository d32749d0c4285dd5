package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunner_Execute(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	runner.Register("greet", "echo", "hello")

	t.Run("Executes Registered Command", func(t *testing.T) {
		result, err := runner.Execute(context.Background(), "greet")
		require.NoError(t, err)
		assert.Equal(t, "hello", result.Output)
		assert.Equal(t, "echo", result.Metadata["command"])
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Execute(context.Background(), "hacker_script")
		assert.ErrorIs(t, err, ErrJobNotRegistered)
	})

	t.Run("Passes Task ID via Env Vars", func(t *testing.T) {
		runner.Register("echo_env", "sh", "-c", "echo $CARDFLOW_TASK_ID")
		result, err := runner.Execute(context.Background(), "echo_env")
		require.NoError(t, err)
		assert.Equal(t, "echo_env", result.Output)
	})

	t.Run("Decodes JSON Output", func(t *testing.T) {
		runner.Register("json", "sh", "-c", `echo '{"count": 3}'`)
		result, err := runner.Execute(context.Background(), "json")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"count": float64(3)}, result.Output)
	})

	t.Run("Reports Stderr On Failure", func(t *testing.T) {
		runner.Register("crashy", "sh", "-c", "echo 'Something went terribly wrong' >&2; exit 123")
		_, err := runner.Execute(context.Background(), "crashy")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exit status 123")
		assert.Contains(t, err.Error(), "Something went terribly wrong")
	})
}

func TestRunner_CancelInterruptsProcess(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner(WithGracePeriod(500 * time.Millisecond))
	runner.Register("slow", "sleep", "10")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runner.Execute(ctx, "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
jobs:
  - task_id: build
    command: make
    args: [all]
    env:
      MODE: release
  - command: orphan
`), 0644))

	jobs, err := LoadJobs(yamlPath)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "make", jobs["build"].Command)
	assert.Equal(t, []string{"all"}, jobs["build"].Args)
	assert.Equal(t, "release", jobs["build"].Environment["MODE"])

	jsonPath := filepath.Join(dir, "jobs.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"jobs": [{"task_id": "t1", "command": "true"}]}`), 0644))
	jobs, err = LoadJobs(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, jobs, "t1")

	jobs, err = LoadJobs(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, jobs)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("jobs: [unclosed"), 0644))
	_, err = LoadJobs(bad)
	assert.Error(t, err)
}

func TestRunner_WithRegistry(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner(WithRegistry(map[string]JobConfig{
		"env": {Command: "sh", Args: []string{"-c", "echo $GREETING"}, Environment: map[string]string{"GREETING": "hi"}},
	}))
	result, err := runner.Execute(context.Background(), "env")
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Output)
}
