package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
	"github.com/aretw0/cardflow/pkg/waiter"
)

// awaitSync registers a wait for a worktask output and records the wait id on the node.
func (e *Engine) awaitSync(ctx context.Context, nodeID, variableID string, timeout time.Duration) string {
	waitID := e.waiter.WaitForSync(variableID, func(waitID, notifiedID string) {
		e.onSynced(nodeID, waitID, notifiedID)
	}, timeout)

	e.mu.Lock()
	e.waits[waitID] = nodeID
	e.mu.Unlock()

	e.patchOutput(nodeID, domain.StatusSyncing, func(out *domain.NodeOutput) {
		out.WaitID = waitID
	})
	e.logger.InfoContext(ctx, "waiting for sync", "node", nodeID, "variable", variableID, "wait_id", waitID, "timeout", timeout)
	e.emitSync(ctx, nodeID, variableID, waitID, false, false)
	return waitID
}

// onSynced runs on the notifier's goroutine. It never advances the run by itself:
// it refreshes the variable and records that the output arrived.
func (e *Engine) onSynced(nodeID, waitID, notifiedID string) {
	if e.isStopped() {
		return
	}
	ctx := e.callbackContext()

	e.mu.Lock()
	delete(e.waits, waitID)
	e.mu.Unlock()

	node, ok := e.Node(nodeID)
	if !ok || node.Status != domain.StatusSyncing || node.Output == nil {
		e.logger.DebugContext(ctx, "late sync ignored", "node", nodeID, "wait_id", waitID)
		return
	}

	if v, ok := e.refresh(ctx, node.Output.SyncVariableID); ok {
		e.mergeVariables(v)
	}
	e.patchOutput(nodeID, domain.StatusSyncing, func(out *domain.NodeOutput) {
		out.Synced = true
		out.Message = ""
	})

	e.logger.InfoContext(ctx, "sync matched", "node", nodeID, "wait_id", waitID, "notified", notifiedID)
	e.emitSync(ctx, nodeID, node.Output.SyncVariableID, waitID, true, false)

	if e.autoComplete {
		go func() {
			if err := e.complete(ctx, nodeID, false); err != nil {
				e.logger.ErrorContext(ctx, "auto completion failed", "node", nodeID, "error", err)
			}
		}()
	}
}

// onSyncTimeout surfaces an expired wait as a request for manual confirmation.
// The wait record stays registered so that a late notification still counts.
func (e *Engine) onSyncTimeout(rec waiter.Record) {
	ctx := e.callbackContext()

	e.mu.RLock()
	nodeID, ok := e.waits[rec.ID]
	e.mu.RUnlock()
	if !ok {
		return
	}

	if _, ok := e.patchOutput(nodeID, domain.StatusSyncing, func(out *domain.NodeOutput) {
		out.TimedOut = true
		out.Message = domain.AwaitingConfirmation
	}); !ok {
		return
	}
	e.logger.WarnContext(ctx, "sync timed out", "node", nodeID, "variable", rec.VariableID, "wait_id", rec.ID)
	e.emitSync(ctx, nodeID, rec.VariableID, rec.ID, false, true)
}

// onChange forwards feed events to the waiter under both the canonical and the raw id.
func (e *Engine) onChange(ev domain.ChangeEvent) {
	if ev.EventType != domain.EventTypeUpdated || e.isStopped() {
		return
	}
	fired := 0
	if ev.CanonicalID != "" {
		fired += e.waiter.NotifySyncComplete(ev.CanonicalID)
	}
	if ev.VariableID != "" && ev.VariableID != ev.CanonicalID {
		fired += e.waiter.NotifySyncComplete(ev.VariableID)
	}
	e.logger.Debug("change event", "variable", ev.VariableID, "canonical", ev.CanonicalID, "fired", fired)
}

// refresh reloads a variable from the store, if one is configured.
func (e *Engine) refresh(ctx context.Context, variableID string) (domain.Variable, bool) {
	if e.store == nil || variableID == "" {
		return domain.Variable{}, false
	}
	v, err := e.store.FetchOne(ctx, variableID)
	if err != nil {
		e.logger.DebugContext(ctx, "variable refresh failed", "variable", variableID, "error", err)
		return domain.Variable{}, false
	}
	return schema.NormalizeVariable(v), true
}

// complete moves a syncing worktask to completed and resumes the run after it.
// The resumed run is detached from ctx: once the node is confirmed, the caller going
// away must not leave the run half advanced.
func (e *Engine) complete(ctx context.Context, nodeID string, manual bool) error {
	ctx = context.WithoutCancel(ctx)

	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.isStopped() {
		return domain.ErrEngineStopped
	}

	node, ok := e.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	if node.Status != domain.StatusSyncing {
		return fmt.Errorf("%w: %s is %s", domain.ErrNotSyncing, nodeID, node.Status)
	}

	out := node.Output.Clone()
	if out == nil {
		out = &domain.NodeOutput{}
	}
	if manual {
		out.ManuallyCompleted = true
	} else {
		out.AutoCompleted = true
	}
	out.Message = ""

	if out.WaitID != "" {
		e.waiter.CancelWait(out.WaitID)
		e.mu.Lock()
		delete(e.waits, out.WaitID)
		e.mu.Unlock()
	}
	if v, ok := e.refresh(ctx, out.SyncVariableID); ok {
		e.mergeVariables(v)
	}

	e.logger.InfoContext(ctx, "worktask confirmed", "node", nodeID, "manual", manual)

	rc := newRunContext(ctx, e, nodeID)
	if !advance(rc, node, out, "") {
		if rc.err != nil {
			return rc.err
		}
		return fmt.Errorf("node %s did not satisfy its completion rule", nodeID)
	}
	return e.drive(ctx, rc.next)
}
