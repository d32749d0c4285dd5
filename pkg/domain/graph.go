package domain

// Edge connects two nodes of a graph.
type Edge struct {
	From string `json:"from" yaml:"from" mapstructure:"from"`
	To   string `json:"to" yaml:"to" mapstructure:"to"`
}

// Graph is the definition a run is built from.
type Graph struct {
	Name  string          `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []ExecutionNode `json:"nodes" yaml:"nodes"`
	Edges []Edge          `json:"edges" yaml:"edges"`
}

// StartNode returns the first node of type start, falling back to a node with ID "start".
func (g *Graph) StartNode() (ExecutionNode, bool) {
	for _, n := range g.Nodes {
		if n.Type == NodeTypeStart {
			return n, true
		}
	}
	for _, n := range g.Nodes {
		if n.ID == DefaultStartNodeID {
			return n, true
		}
	}
	return ExecutionNode{}, false
}

// Successor returns the target of the first edge leaving nodeID.
func (g *Graph) Successor(nodeID string) string {
	for _, e := range g.Edges {
		if e.From == nodeID {
			return e.To
		}
	}
	return ""
}

// Node looks up a node by ID.
func (g *Graph) Node(id string) (ExecutionNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return ExecutionNode{}, false
}
