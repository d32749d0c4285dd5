package domain

import "time"

// NodeType identifies the card kind and selects its handler.
type NodeType string

const (
	// NodeTypeStart resolves its welcome text and advances unconditionally.
	NodeTypeStart NodeType = "start"
	// NodeTypeWorkTask runs an external job and parks until confirmed.
	NodeTypeWorkTask NodeType = "worktask"
	// NodeTypeDisplay resolves text for presentation.
	NodeTypeDisplay NodeType = "display"
	// NodeTypeAssign copies or writes values into variables.
	NodeTypeAssign NodeType = "assign"
	// NodeTypeLoop branches to a yes or no target.
	NodeTypeLoop NodeType = "loop"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeStart, NodeTypeWorkTask, NodeTypeDisplay, NodeTypeAssign, NodeTypeLoop:
		return true
	}
	return false
}

// NodeStatus is the per-run lifecycle of a node instance.
type NodeStatus string

const (
	StatusWaiting   NodeStatus = "waiting"   // Initial state
	StatusExecuting NodeStatus = "executing" // Handler is running
	StatusSyncing   NodeStatus = "syncing"   // Worktask parked until the output variable is confirmed
	StatusCompleted NodeStatus = "completed" // Terminal
	StatusError     NodeStatus = "error"     // Terminal
)

// Terminal reports whether no further transition is allowed within a run.
func (s NodeStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether a node of type t may move from one status to another.
// Re-entering a terminal status is allowed only through a fresh run (Reset).
func CanTransition(t NodeType, from, to NodeStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusWaiting:
		return to == StatusExecuting
	case StatusExecuting:
		if to == StatusSyncing {
			return t == NodeTypeWorkTask
		}
		return to == StatusCompleted || to == StatusError
	case StatusSyncing:
		return to == StatusCompleted || to == StatusError
	}
	return false
}

// ExecutionNode is a card instance in a run.
type ExecutionNode struct {
	ID     string         `json:"id" yaml:"id"`
	Type   NodeType       `json:"type" yaml:"type"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`

	Status NodeStatus  `json:"status"`
	Output *NodeOutput `json:"output,omitempty"`

	// NextNodeID overrides edge resolution. Loop nodes set it to the chosen branch.
	NextNodeID string `json:"next_node_id,omitempty"`

	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// NodeOutput is the typed result a handler records on its node.
// Only the fields relevant to the node type are populated.
type NodeOutput struct {
	// Content is the resolved text of start and display nodes.
	Content string `json:"content,omitempty"`
	// Display is Content with unresolved identifiers in display form, set only when they differ.
	Display string `json:"display,omitempty"`

	// Worktask
	TaskID            string         `json:"task_id,omitempty"`
	JobOutput         any            `json:"job_output,omitempty"`
	SyncVariableID    string         `json:"sync_variable_id,omitempty"`
	WaitID            string         `json:"wait_id,omitempty"`
	SyncStartedAt     time.Time      `json:"sync_started_at,omitzero"`
	Synced            bool           `json:"synced,omitempty"`
	TimedOut          bool           `json:"timed_out,omitempty"`
	ManuallyCompleted bool           `json:"manually_completed,omitempty"`
	AutoCompleted     bool           `json:"auto_completed,omitempty"`
	Message           string         `json:"message,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`

	// Assign
	Assignments []AssignmentResult `json:"assignments,omitempty"`

	// Loop
	LoopResult string `json:"loop_result,omitempty"`
	RunCount   int    `json:"run_count,omitempty"`

	Error string `json:"error,omitempty"`
}

// Clone returns a copy safe to mutate without affecting o.
func (o *NodeOutput) Clone() *NodeOutput {
	if o == nil {
		return nil
	}
	c := *o
	if o.Assignments != nil {
		c.Assignments = append([]AssignmentResult(nil), o.Assignments...)
	}
	if o.Extra != nil {
		c.Extra = make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// Clone returns a deep enough copy of the node for snapshots.
func (n ExecutionNode) Clone() ExecutionNode {
	c := n
	c.Output = n.Output.Clone()
	if n.Config != nil {
		c.Config = make(map[string]any, len(n.Config))
		for k, v := range n.Config {
			c.Config[k] = v
		}
	}
	return c
}

// NodeUpdate is a partial update applied through the run context.
// Nil fields are left untouched.
type NodeUpdate struct {
	Status     *NodeStatus
	Output     *NodeOutput
	NextNodeID *string
}

// WithStatus is a convenience constructor for status-only updates.
func WithStatus(s NodeStatus) NodeUpdate {
	return NodeUpdate{Status: &s}
}

// Assignment is one entry of an assign node configuration.
// Exactly one of Source or Value supplies the value written to Target.
type Assignment struct {
	Source string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
}

// AssignmentResult records the audit trail of one evaluated assignment.
type AssignmentResult struct {
	TargetSystemID  string `json:"target_system_id"`
	TargetDisplayID string `json:"target_display_id,omitempty"`
	SourceSystemID  string `json:"source_system_id,omitempty"`
	SourceDisplayID string `json:"source_display_id,omitempty"`
	Value           string `json:"value"`
	OK              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
}
