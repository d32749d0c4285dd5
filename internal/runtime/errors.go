package runtime

import (
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
)

// NodeExecutionError reports the failure that halted a run.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node '%s' failed: %v", e.NodeID, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// TransitionError is returned when a status update violates the node lifecycle.
type TransitionError struct {
	NodeID string
	From   domain.NodeStatus
	To     domain.NodeStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition for node '%s': %s -> %s", e.NodeID, e.From, e.To)
}
