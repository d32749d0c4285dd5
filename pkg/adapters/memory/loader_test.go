package memory_test

import (
	"testing"

	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
	contract "github.com/aretw0/cardflow/pkg/ports/tests"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	nodes := []domain.ExecutionNode{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "show", Type: domain.NodeTypeDisplay, Config: map[string]any{"text": "hi"}},
	}

	loader, err := memory.NewFromNodes(nodes...)
	if err != nil {
		t.Fatalf("NewFromNodes failed: %v", err)
	}

	contract.GraphLoaderContractTest(t, loader, domain.Graph{
		Nodes: nodes,
		Edges: []domain.Edge{{From: "start", To: "show"}},
	})
}

func TestNewFromNodes_MissingID(t *testing.T) {
	if _, err := memory.NewFromNodes(domain.ExecutionNode{Type: domain.NodeTypeStart}); err == nil {
		t.Error("expected error for node without ID")
	}
}
