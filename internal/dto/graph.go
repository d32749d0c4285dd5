package dto

// GraphFile is the on-disk representation of a card graph (YAML or JSON).
// It uses "mapstructure" tags so that both formats decode through the same path.
type GraphFile struct {
	Name  string     `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Nodes []NodeSpec `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []EdgeSpec `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// NodeSpec declares a card.
type NodeSpec struct {
	ID     string         `json:"id" yaml:"id" mapstructure:"id"`
	Type   string         `json:"type" yaml:"type" mapstructure:"type"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`

	// Next is shorthand for a single outgoing edge.
	Next string `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
}

// EdgeSpec connects two cards. The long key forms are accepted for compatibility
// with editors that export "source"/"target" pairs.
type EdgeSpec struct {
	From   string `json:"from,omitempty" yaml:"from,omitempty" mapstructure:"from"`
	Source string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	To     string `json:"to,omitempty" yaml:"to,omitempty" mapstructure:"to"`
	Target string `json:"target,omitempty" yaml:"target,omitempty" mapstructure:"target"`
}

// Endpoints returns the effective from/to pair, preferring the short keys.
func (e EdgeSpec) Endpoints() (string, string) {
	from, to := e.From, e.To
	if from == "" {
		from = e.Source
	}
	if to == "" {
		to = e.Target
	}
	return from, to
}
