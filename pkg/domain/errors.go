package domain

import (
	"errors"
	"fmt"
)

// ErrVariableNotFound is returned by a VariableStore when no variable matches an id.
var ErrVariableNotFound = errors.New("variable not found")

// ErrNodeNotFound is returned when a node id is not part of the running graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrNotSyncing is returned by manual completion when the node is not parked in syncing.
var ErrNotSyncing = errors.New("node is not syncing")

// ErrEngineStopped is returned when an operation is attempted on a stopped run.
var ErrEngineStopped = errors.New("engine stopped")

// NodeConfigError reports a node whose configuration cannot produce a result.
type NodeConfigError struct {
	NodeID string
	Reason string
}

func (e *NodeConfigError) Error() string {
	return fmt.Sprintf("node '%s' misconfigured: %s", e.NodeID, e.Reason)
}

// JobError wraps a failure of the external job runner.
type JobError struct {
	NodeID string
	TaskID string
	Err    error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s failed in node '%s': %v", e.TaskID, e.NodeID, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
