package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		nodeType NodeType
		from, to NodeStatus
		want     bool
	}{
		{NodeTypeDisplay, StatusWaiting, StatusExecuting, true},
		{NodeTypeDisplay, StatusWaiting, StatusCompleted, false},
		{NodeTypeDisplay, StatusExecuting, StatusCompleted, true},
		{NodeTypeDisplay, StatusExecuting, StatusSyncing, false},
		{NodeTypeWorkTask, StatusExecuting, StatusSyncing, true},
		{NodeTypeWorkTask, StatusSyncing, StatusCompleted, true},
		{NodeTypeWorkTask, StatusSyncing, StatusError, true},
		{NodeTypeWorkTask, StatusSyncing, StatusExecuting, false},
		{NodeTypeLoop, StatusCompleted, StatusExecuting, false},
		{NodeTypeAssign, StatusError, StatusCompleted, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.nodeType, tt.from, tt.to)
		assert.Equal(t, tt.want, got, "%s: %s -> %s", tt.nodeType, tt.from, tt.to)
	}
}

func TestGraph_StartAndSuccessor(t *testing.T) {
	g := Graph{
		Nodes: []ExecutionNode{
			{ID: "intro", Type: NodeTypeDisplay},
			{ID: "begin", Type: NodeTypeStart},
		},
		Edges: []Edge{{From: "begin", To: "intro"}, {From: "begin", To: "ignored"}},
	}

	start, ok := g.StartNode()
	assert.True(t, ok)
	assert.Equal(t, "begin", start.ID)
	assert.Equal(t, "intro", g.Successor("begin"))
	assert.Equal(t, "", g.Successor("intro"))
}

func TestNodeOutput_CloneIsolated(t *testing.T) {
	o := &NodeOutput{Assignments: []AssignmentResult{{TargetSystemID: "a"}}, Extra: map[string]any{"k": 1}}
	c := o.Clone()
	c.Assignments[0].TargetSystemID = "b"
	c.Extra["k"] = 2

	assert.Equal(t, "a", o.Assignments[0].TargetSystemID)
	assert.Equal(t, 1, o.Extra["k"])
}
