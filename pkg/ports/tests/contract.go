package tests

import (
	"context"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
// expected must describe the graph the loader was prepared with.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, expected domain.Graph) {
	t.Helper()

	graph, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading graph: %v", err)
	}

	t.Run("Nodes", func(t *testing.T) {
		if len(graph.Nodes) != len(expected.Nodes) {
			t.Fatalf("node count mismatch: got %d, want %d", len(graph.Nodes), len(expected.Nodes))
		}
		for _, want := range expected.Nodes {
			got, ok := graph.Node(want.ID)
			if !ok {
				t.Errorf("missing node %s", want.ID)
				continue
			}
			if got.Type != want.Type {
				t.Errorf("node %s type mismatch: got %s, want %s", want.ID, got.Type, want.Type)
			}
		}
	})

	t.Run("Edges", func(t *testing.T) {
		if len(graph.Edges) != len(expected.Edges) {
			t.Fatalf("edge count mismatch: got %d, want %d", len(graph.Edges), len(expected.Edges))
		}
		for i, want := range expected.Edges {
			if graph.Edges[i] != want {
				t.Errorf("edge %d mismatch: got %+v, want %+v", i, graph.Edges[i], want)
			}
		}
	})

	t.Run("Start", func(t *testing.T) {
		if _, ok := graph.StartNode(); !ok {
			t.Error("graph has no start node")
		}
	})
}
