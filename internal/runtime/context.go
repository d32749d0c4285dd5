package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/interpolate"
	"github.com/aretw0/cardflow/pkg/ports"
)

// RunContext is the handle a handler receives for one node visit.
// All mutations go through the engine, which serializes them.
type RunContext struct {
	ctx    context.Context
	engine *Engine
	nodeID string

	advanced bool
	next     string
	err      error
}

func newRunContext(ctx context.Context, e *Engine, nodeID string) *RunContext {
	return &RunContext{ctx: ctx, engine: e, nodeID: nodeID}
}

// Variables returns the shared variable map. It must be treated as read-only;
// use SetVariables or MergeVariables to publish changes.
func (rc *RunContext) Variables() domain.Variables {
	return rc.engine.Variables()
}

// SetVariables replaces the shared variable map.
func (rc *RunContext) SetVariables(vars domain.Variables) {
	rc.engine.mu.Lock()
	rc.engine.vars = vars
	rc.engine.mu.Unlock()
}

// MergeVariables replaces the given entries of the shared variable map.
func (rc *RunContext) MergeVariables(vars ...domain.Variable) {
	rc.engine.mergeVariables(vars...)
}

// UpdateNode applies a partial update to a node.
func (rc *RunContext) UpdateNode(id string, u domain.NodeUpdate) error {
	return rc.engine.updateNode(rc.ctx, id, u)
}

// MoveToNextNode hands control to the next node. With an empty id the successor is
// the node's NextNodeID, then its first outgoing edge. An empty result ends the run.
func (rc *RunContext) MoveToNextNode(id string) {
	if rc.advanced {
		rc.engine.logger.WarnContext(rc.ctx, "node advanced twice", "node", rc.nodeID)
		return
	}
	e := rc.engine
	node, _ := e.Node(rc.nodeID)
	if id == "" {
		id = node.NextNodeID
	}
	if id == "" {
		id = e.graph.Successor(rc.nodeID)
	}
	rc.advanced = true
	rc.next = id
	e.emitNode(rc.ctx, e.hooks.OnNodeLeave, domain.EventNodeLeave, node, "")
}

// OnError records err on the node, moves it to error and halts the run.
func (rc *RunContext) OnError(id string, err error) {
	e := rc.engine
	e.logger.ErrorContext(rc.ctx, "node failed", "node", id, "error", err)

	out := &domain.NodeOutput{}
	if node, ok := e.Node(id); ok && node.Output != nil {
		out = node.Output.Clone()
	}
	out.Error = err.Error()

	failed := domain.StatusError
	if uerr := e.updateNode(rc.ctx, id, domain.NodeUpdate{Status: &failed, Output: out}); uerr != nil {
		e.logger.ErrorContext(rc.ctx, "failed to record node error", "node", id, "error", uerr)
	}
	if rc.err == nil {
		rc.err = &NodeExecutionError{NodeID: id, Err: err}
	}
}

// Interpolator returns the text interpolator.
func (rc *RunContext) Interpolator() *interpolate.Interpolator {
	return rc.engine.interp
}

// Store returns the variable store, or nil when running detached.
func (rc *RunContext) Store() ports.VariableStore {
	return rc.engine.store
}

// Jobs returns the job runner, or nil when none is configured.
func (rc *RunContext) Jobs() ports.JobRunner {
	return rc.engine.jobs
}

// Logger returns the engine logger.
func (rc *RunContext) Logger() *slog.Logger {
	return rc.engine.logger
}

// SyncTimeout is the default wait for worktask outputs.
func (rc *RunContext) SyncTimeout() time.Duration {
	return rc.engine.syncTimeout
}

// AwaitSync parks the node on variableID. The node must already be syncing.
func (rc *RunContext) AwaitSync(variableID string, timeout time.Duration) string {
	return rc.engine.awaitSync(rc.ctx, rc.nodeID, variableID, timeout)
}

// IncrementRunCount counts a visit of a loop node and returns the new count.
// Counters live for the whole run.
func (rc *RunContext) IncrementRunCount(nodeID string) int {
	rc.engine.mu.Lock()
	defer rc.engine.mu.Unlock()
	rc.engine.runCounts[nodeID]++
	return rc.engine.runCounts[nodeID]
}
