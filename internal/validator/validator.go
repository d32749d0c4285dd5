package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/interpolate"
	"github.com/aretw0/cardflow/pkg/schema"
)

// ValidationError lists every problem found in a graph.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// Report is the outcome of ValidateGraph. Warnings never fail validation.
type Report struct {
	Reachable []string
	Warnings  []string
}

// ValidateGraph checks node configs, broken links, unreachable nodes and the
// identifiers embedded in card text, crawling from the start node.
func ValidateGraph(g *domain.Graph) (*Report, error) {
	var problems []string
	report := &Report{}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node id '%s'", n.ID))
		}
		seen[n.ID] = true
		if !n.Type.Valid() {
			problems = append(problems, fmt.Sprintf("node '%s' has unknown type '%s'", n.ID, n.Type))
			continue
		}
		if err := dto.ValidateConfig(n); err != nil {
			problems = append(problems, err.Error())
		}
		report.Warnings = append(report.Warnings, identifierWarnings(n)...)
	}
	for _, e := range g.Edges {
		if !seen[e.From] {
			problems = append(problems, fmt.Sprintf("edge from missing node '%s'", e.From))
		}
	}

	start, ok := g.StartNode()
	if !ok {
		problems = append(problems, "graph has no start node")
		return report, &ValidationError{Problems: problems}
	}

	// Crawler
	visited := make(map[string]bool)
	queue := []string{start.ID}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		if visited[currentID] {
			continue
		}
		visited[currentID] = true
		report.Reachable = append(report.Reachable, currentID)

		node, ok := g.Node(currentID)
		if !ok {
			problems = append(problems, fmt.Sprintf("missing node '%s'", currentID))
			continue
		}
		for _, target := range successors(g, node) {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("node '%s' is unreachable", n.ID))
		}
	}

	if len(problems) > 0 {
		return report, &ValidationError{Problems: problems}
	}
	return report, nil
}

// successors lists where a node may hand control to: its edge, or both loop branches.
func successors(g *domain.Graph, n domain.ExecutionNode) []string {
	if n.Type == domain.NodeTypeLoop {
		var cfg dto.LoopConfig
		if err := dto.DecodeConfig(n, &cfg); err == nil {
			var out []string
			for _, t := range []string{cfg.Yes, cfg.No} {
				if t != "" {
					out = append(out, t)
				}
			}
			return out
		}
	}
	if n.NextNodeID != "" {
		return []string{n.NextNodeID}
	}
	if next := g.Successor(n.ID); next != "" {
		return []string{next}
	}
	return nil
}

// identifierWarnings flags tokens that cannot be decoded, carry no entity type,
// or use a field spelling the schema would rewrite.
func identifierWarnings(n domain.ExecutionNode) []string {
	var out []string
	for _, text := range configStrings(n.Config) {
		for _, tok := range interpolate.Tokens(text) {
			id, ok := identifier.ParseSystemID(tok)
			switch {
			case !ok:
				out = append(out, fmt.Sprintf("node '%s': malformed identifier %s", n.ID, tok))
			case id.EntityType == "":
				out = append(out, fmt.Sprintf("node '%s': untyped identifier %s", n.ID, tok))
			default:
				if canonical := schema.NormalizeField(id.Field, id.EntityType); canonical != id.Field {
					out = append(out, fmt.Sprintf("node '%s': field of %s normalizes to '%s'", n.ID, tok, canonical))
				}
			}
		}
	}
	return out
}

func configStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case map[string]any:
		var out []string
		for _, child := range t {
			out = append(out, configStrings(child)...)
		}
		return out
	case []any:
		var out []string
		for _, child := range t {
			out = append(out, configStrings(child)...)
		}
		return out
	}
	return nil
}
