package ports

import "context"

// JobResult is the outcome of a long-running job.
type JobResult struct {
	Output   any            `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// JobRunner executes the external job behind a worktask card.
// Execute blocks until the job finishes or ctx is done.
type JobRunner interface {
	Execute(ctx context.Context, taskID string) (JobResult, error)
}

// JobRunnerFunc adapts a function to JobRunner.
type JobRunnerFunc func(ctx context.Context, taskID string) (JobResult, error)

// Execute calls f.
func (f JobRunnerFunc) Execute(ctx context.Context, taskID string) (JobResult, error) {
	return f(ctx, taskID)
}
