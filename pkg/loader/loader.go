package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FileLoader implements ports.GraphLoader over a definition file.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for path. The file is read on every Load.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and parses the definition file.
func (l *FileLoader) Load(ctx context.Context) (*domain.Graph, error) {
	return LoadFile(l.path)
}

// LoadFile reads and parses a definition file.
// When the file has no name, the base file name is used.
func LoadFile(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if g.Name == "" {
		g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return g, nil
}

// Parse decodes a YAML or JSON definition. JSON is accepted as the YAML subset it is.
func Parse(data []byte) (*domain.Graph, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty graph definition")
	}

	var file dto.GraphFile
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &file,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return FromFile(file)
}

// FromFile converts the file representation into a domain graph.
func FromFile(file dto.GraphFile) (*domain.Graph, error) {
	g := &domain.Graph{
		Name:  file.Name,
		Nodes: make([]domain.ExecutionNode, 0, len(file.Nodes)),
	}
	for i, spec := range file.Nodes {
		if spec.ID == "" {
			return nil, fmt.Errorf("node %d has no id", i)
		}
		g.Nodes = append(g.Nodes, domain.ExecutionNode{
			ID:     spec.ID,
			Type:   domain.NodeType(strings.ToLower(strings.TrimSpace(spec.Type))),
			Label:  spec.Label,
			Config: spec.Config,
			Status: domain.StatusWaiting,
		})
		if spec.Next != "" {
			g.Edges = append(g.Edges, domain.Edge{From: spec.ID, To: spec.Next})
		}
	}
	for i, e := range file.Edges {
		from, to := e.Endpoints()
		if from == "" || to == "" {
			return nil, fmt.Errorf("edge %d is missing an endpoint", i)
		}
		g.Edges = append(g.Edges, domain.Edge{From: from, To: to})
	}
	return g, nil
}

// Marshal encodes a graph back into YAML using the file representation.
func Marshal(g *domain.Graph) ([]byte, error) {
	file := dto.GraphFile{Name: g.Name}
	for _, n := range g.Nodes {
		file.Nodes = append(file.Nodes, dto.NodeSpec{ID: n.ID, Type: string(n.Type), Label: n.Label, Config: n.Config})
	}
	for _, e := range g.Edges {
		file.Edges = append(file.Edges, dto.EdgeSpec{From: e.From, To: e.To})
	}
	return yaml.Marshal(file)
}
