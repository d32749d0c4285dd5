package runtime

import (
	"context"
	"time"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/schema"
)

// WorkTaskHandler runs the card's job and parks the node in syncing until the
// output is confirmed through Engine.CompleteManually.
type WorkTaskHandler struct{}

func (WorkTaskHandler) Execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext) {
	cfg, err := dto.DecodeWorkTask(node)
	if err != nil {
		rc.OnError(node.ID, err)
		return
	}
	jobs := rc.Jobs()
	if jobs == nil {
		rc.OnError(node.ID, &domain.NodeConfigError{NodeID: node.ID, Reason: "no job runner configured"})
		return
	}

	rc.Logger().InfoContext(ctx, "starting job", "node", node.ID, "task", cfg.TaskID)
	res, err := jobs.Execute(ctx, cfg.TaskID)
	if err != nil {
		rc.OnError(node.ID, &domain.JobError{NodeID: node.ID, TaskID: cfg.TaskID, Err: err})
		return
	}

	variableID := identifier.FormatTypedSystemID(schema.TypeTask, cfg.TaskID, cfg.OutputField)
	out := &domain.NodeOutput{
		TaskID:         cfg.TaskID,
		JobOutput:      res.Output,
		SyncVariableID: variableID,
		SyncStartedAt:  time.Now(),
		Extra:          res.Metadata,
	}
	syncing := domain.StatusSyncing
	if err := rc.UpdateNode(node.ID, domain.NodeUpdate{Status: &syncing, Output: out}); err != nil {
		rc.OnError(node.ID, err)
		return
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = rc.SyncTimeout()
	}
	rc.AwaitSync(variableID, timeout)

	// Parked: only a confirmation satisfies the completion rule.
	if ApplyCompletionRule(node, out) {
		rc.MoveToNextNode("")
	}
}
