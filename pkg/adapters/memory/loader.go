package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
)

// Loader implements ports.GraphLoader over a graph held in memory.
type Loader struct {
	graph domain.Graph
}

// NewLoader creates a loader returning copies of graph.
func NewLoader(graph domain.Graph) *Loader {
	return &Loader{graph: graph}
}

// NewFromNodes chains nodes in the given order, each with an edge to the next.
// This keeps test graphs short.
func NewFromNodes(nodes ...domain.ExecutionNode) (*Loader, error) {
	g := domain.Graph{Nodes: make([]domain.ExecutionNode, 0, len(nodes))}
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d missing ID", i)
		}
		g.Nodes = append(g.Nodes, n)
		if i > 0 {
			g.Edges = append(g.Edges, domain.Edge{From: nodes[i-1].ID, To: n.ID})
		}
	}
	return &Loader{graph: g}, nil
}

// Load returns a copy of the graph.
func (l *Loader) Load(ctx context.Context) (*domain.Graph, error) {
	g := domain.Graph{
		Name:  l.graph.Name,
		Nodes: make([]domain.ExecutionNode, 0, len(l.graph.Nodes)),
		Edges: append([]domain.Edge(nil), l.graph.Edges...),
	}
	for _, n := range l.graph.Nodes {
		g.Nodes = append(g.Nodes, n.Clone())
	}
	return &g, nil
}
