package runtime

import (
	"context"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
)

func (e *Engine) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		RunID:     e.RunID(),
	}
}

func (e *Engine) emitNode(ctx context.Context, hook func(context.Context, *domain.NodeEvent), t domain.EventType, n domain.ExecutionNode, errMsg string) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.NodeEvent{
		EventBase: e.eventBase(t),
		NodeID:    n.ID,
		NodeType:  n.Type,
		Status:    n.Status,
		Error:     errMsg,
	})
}

func (e *Engine) emitSync(ctx context.Context, nodeID, variableID, waitID string, matched, timedOut bool) {
	if e.hooks.OnSync == nil {
		return
	}
	e.hooks.OnSync(ctx, &domain.SyncEvent{
		EventBase:  e.eventBase(domain.EventSync),
		NodeID:     nodeID,
		VariableID: variableID,
		WaitID:     waitID,
		Matched:    matched,
		TimedOut:   timedOut,
	})
}
