package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventNodeLeave  EventType = "node_leave"
	EventNodeStatus EventType = "node_status"
	EventSync       EventType = "sync"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// NodeEvent represents entry into, exit from, or a status change of a node.
type NodeEvent struct {
	EventBase
	NodeID   string     `json:"node_id"`
	NodeType NodeType   `json:"node_type"`
	Status   NodeStatus `json:"status,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// SyncEvent reports progress of a worktask waiting for its output variable.
type SyncEvent struct {
	EventBase
	NodeID     string `json:"node_id"`
	VariableID string `json:"variable_id"`
	WaitID     string `json:"wait_id"`
	Matched    bool   `json:"matched,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnNodeStatus func(context.Context, *NodeEvent)
	OnSync       func(context.Context, *SyncEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:  chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:  chainNode(h.OnNodeLeave, other.OnNodeLeave),
		OnNodeStatus: chainNode(h.OnNodeStatus, other.OnNodeStatus),
		OnSync:       chainSync(h.OnSync, other.OnSync),
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainSync(a, b func(context.Context, *SyncEvent)) func(context.Context, *SyncEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *SyncEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
