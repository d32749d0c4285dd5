package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/ports"
)

// ErrJobNotRegistered is returned for task IDs missing from the allow-list.
var ErrJobNotRegistered = errors.New("job not registered")

// DefaultGracePeriod is how long a cancelled process may take to exit after an interrupt.
const DefaultGracePeriod = 5 * time.Second

// Runner implements ports.JobRunner by executing local processes.
// Only task IDs present in its allow-list can be run.
type Runner struct {
	registry map[string]JobConfig
	baseDir  string
	grace    time.Duration
	logger   *slog.Logger
}

var _ ports.JobRunner = (*Runner)(nil)

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(jobs map[string]JobConfig) RunnerOption {
	return func(r *Runner) {
		for id, job := range jobs {
			job.TaskID = id
			r.registry[id] = job
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod bounds the wait after interrupting a cancelled process.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]JobConfig),
		grace:    DefaultGracePeriod,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list under taskID.
func (r *Runner) Register(taskID string, command string, args ...string) {
	r.registry[taskID] = JobConfig{
		TaskID:  taskID,
		Command: command,
		Args:    args,
	}
}

// Execute runs the command registered for taskID.
// The task ID is passed as CARDFLOW_TASK_ID; stdout becomes the job output, decoded when it is JSON.
func (r *Runner) Execute(ctx context.Context, taskID string) (ports.JobResult, error) {
	job, ok := r.registry[taskID]
	if !ok {
		return ports.JobResult{}, fmt.Errorf("%w: %s", ErrJobNotRegistered, taskID)
	}

	cmd := exec.CommandContext(ctx, job.Command, job.Args...)
	cmd.Dir = r.baseDir
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = r.grace

	// Arguments travel as environment variables, never as command flags.
	env := []string{"CARDFLOW_TASK_ID=" + taskID}
	for k, v := range job.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	meta := map[string]any{
		"command":  job.Command,
		"duration": time.Since(start).String(),
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		r.logger.WarnContext(ctx, "job failed", "task_id", taskID, "error", err)
		return ports.JobResult{Metadata: meta}, fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	r.logger.DebugContext(ctx, "job finished", "task_id", taskID, "duration", meta["duration"])
	return ports.JobResult{Output: decodeOutput(stdout.String()), Metadata: meta}, nil
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
