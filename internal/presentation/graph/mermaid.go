package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	Statuses    map[string]domain.NodeStatus
	CurrentNode string
}

// OverlayFromSnapshot builds an overlay from a run snapshot.
func OverlayFromSnapshot(snap *domain.RunSnapshot) *GraphOverlay {
	if snap == nil {
		return nil
	}
	o := &GraphOverlay{
		Statuses:    make(map[string]domain.NodeStatus, len(snap.Nodes)),
		CurrentNode: snap.CurrentNodeID,
	}
	for _, n := range snap.Nodes {
		o.Statuses[n.ID] = n.Status
	}
	return o
}

// statusClasses maps node statuses to Mermaid classes. Waiting nodes stay unstyled.
var statusClasses = map[domain.NodeStatus]string{
	domain.StatusCompleted: "completed",
	domain.StatusSyncing:   "syncing",
	domain.StatusError:     "failed",
	domain.StatusExecuting: "current",
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a card graph.
// It applies semantic styling:
// - Start: ((Circle))
// - Worktask: [[Subroutine]]
// - Assign: [/Parallelogram/]
// - Loop: {Rhombus} with yes/no branches
// - Display: [Rectangle]
// It also applies overlay styles if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if g == nil {
		return sb.String()
	}

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeTypeStart:
			opener, closer = "((", "))"
		case domain.NodeTypeWorkTask:
			opener, closer = "[[", "]]"
		case domain.NodeTypeAssign:
			opener, closer = "[/", "/]"
		case domain.NodeTypeLoop:
			opener, closer = "{", "}"
		}

		text := node.ID
		if node.Label != "" {
			text = escapeLabel(node.Label)
		}
		if node.Type == domain.NodeTypeWorkTask {
			if cfg, err := dto.DecodeWorkTask(node); err == nil && cfg.Timeout > 0 {
				text = fmt.Sprintf("%s <br/> ⏱️ %s", text, cfg.Timeout)
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, text, closer)

		if node.Type == domain.NodeTypeLoop {
			if cfg, err := dto.DecodeLoop(node); err == nil {
				writeBranch(&sb, safeID, "yes", cfg.Yes)
				writeBranch(&sb, safeID, "no", cfg.No)
				continue
			}
		}
		for _, e := range g.Edges {
			if e.From == node.ID {
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(e.To))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef syncing fill:#fff3e0,stroke:#ef6c00,stroke-width:2px,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, node := range g.Nodes {
			status, ok := overlay.Statuses[node.ID]
			if !ok {
				continue
			}
			class := statusClasses[status]
			if node.ID == overlay.CurrentNode && status != domain.StatusSyncing && status != domain.StatusError {
				class = "current"
			}
			if class != "" {
				fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(node.ID), class)
			}
		}
	}

	return sb.String()
}

func writeBranch(sb *strings.Builder, from, label, to string) {
	if to == "" {
		return
	}
	fmt.Fprintf(sb, "    %s -- \"%s\" --> %s\n", from, label, sanitizeMermaidID(to))
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
