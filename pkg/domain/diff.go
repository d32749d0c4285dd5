package domain

import (
	"reflect"
)

// RunSnapshot is a point-in-time copy of a run.
type RunSnapshot struct {
	RunID         string          `json:"run_id"`
	CurrentNodeID string          `json:"current_node_id,omitempty"`
	Nodes         []ExecutionNode `json:"nodes"`
	Variables     Variables       `json:"variables,omitempty"`
	Done          bool            `json:"done"`
}

// RunDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type RunDiff struct {
	// RunID is always present to identify the target.
	RunID string `json:"run_id"`

	CurrentNodeID *string `json:"current_node_id,omitempty"`

	// Nodes contains only nodes whose status, output or branch changed.
	Nodes []ExecutionNode `json:"nodes,omitempty"`

	// Variables contains changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Variables map[string]any `json:"variables,omitempty"`

	Done *bool `json:"done,omitempty"`
}

// Diff calculates the difference between two snapshots.
// If old is nil, it returns a diff representing the entire new snapshot (initial load).
func Diff(old, new *RunSnapshot) *RunDiff {
	if new == nil {
		return nil
	}

	diff := &RunDiff{RunID: new.RunID}

	if old == nil || old.CurrentNodeID != new.CurrentNodeID {
		diff.CurrentNodeID = &new.CurrentNodeID
	}
	if old == nil {
		if new.Done {
			diff.Done = &new.Done
		}
	} else if old.Done != new.Done {
		diff.Done = &new.Done
	}

	diff.Nodes = diffNodes(old, new)
	diff.Variables = diffVariables(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffNodes(old, new *RunSnapshot) []ExecutionNode {
	prev := make(map[string]ExecutionNode)
	if old != nil {
		for _, n := range old.Nodes {
			prev[n.ID] = n
		}
	}

	var changed []ExecutionNode
	for _, n := range new.Nodes {
		p, ok := prev[n.ID]
		if !ok || p.Status != n.Status || p.NextNodeID != n.NextNodeID || !reflect.DeepEqual(p.Output, n.Output) {
			changed = append(changed, n)
		}
	}
	return changed
}

func diffVariables(old, new *RunSnapshot) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Variables {
			delta[k] = v.Value
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, nv := range new.Variables {
		ov, exists := old.Variables[k]
		if !exists || !reflect.DeepEqual(ov.Value, nv.Value) {
			delta[k] = nv.Value
		}
	}
	for k := range old.Variables {
		if _, exists := new.Variables[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *RunDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Done == nil &&
		len(d.Nodes) == 0 &&
		len(d.Variables) == 0
}
