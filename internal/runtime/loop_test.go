package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopHandler_PriorRunCount(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.ExecutionNode{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "loop", Type: domain.NodeTypeLoop, Config: map[string]any{
				"condition_type": "runCount", "max_runs": 3, "yes": "yes_node", "no": "no_node",
			}},
			{ID: "yes_node", Type: domain.NodeTypeDisplay, Config: map[string]any{"text": "y"}},
			{ID: "no_node", Type: domain.NodeTypeDisplay, Config: map[string]any{"text": "n"}},
		},
	}
	e, err := NewEngine(g)
	require.NoError(t, err)
	e.runCounts["loop"] = 2

	ctx := context.Background()
	node, err := e.enter(ctx, "loop")
	require.NoError(t, err)

	rc := newRunContext(ctx, e, "loop")
	LoopHandler{}.Execute(ctx, node, rc)

	require.NoError(t, rc.err)
	assert.True(t, rc.advanced)
	assert.Equal(t, "no_node", rc.next)

	loop, _ := e.Node("loop")
	assert.Equal(t, domain.LoopNo, loop.Output.LoopResult)
	assert.Equal(t, "no_node", loop.NextNodeID)
	assert.Equal(t, domain.StatusCompleted, loop.Status)
}

func TestRunContext_RejectsIllegalTransition(t *testing.T) {
	g := &domain.Graph{Nodes: []domain.ExecutionNode{{ID: "start", Type: domain.NodeTypeStart}}}
	e, err := NewEngine(g)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = e.enter(ctx, "start")
	require.NoError(t, err)

	rc := newRunContext(ctx, e, "start")
	err = rc.UpdateNode("start", domain.WithStatus(domain.StatusSyncing))
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, domain.StatusExecuting, terr.From)

	node, _ := e.Node("start")
	assert.Equal(t, domain.StatusExecuting, node.Status)
}
