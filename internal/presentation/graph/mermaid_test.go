package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/cardflow/internal/presentation/graph"
	"github.com/aretw0/cardflow/pkg/domain"
)

func sample() *domain.Graph {
	return &domain.Graph{
		Nodes: []domain.ExecutionNode{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "build-job", Type: domain.NodeTypeWorkTask, Label: `Run "build"`, Config: map[string]any{"task_id": "b1", "timeout": "30s"}},
			{ID: "copy", Type: domain.NodeTypeAssign},
			{ID: "again", Type: domain.NodeTypeLoop, Config: map[string]any{
				"condition_type": "runCount", "max_runs": 3, "yes": "build-job", "no": "show",
			}},
			{ID: "show", Type: domain.NodeTypeDisplay},
		},
		Edges: []domain.Edge{
			{From: "start", To: "build-job"},
			{From: "build-job", To: "copy"},
			{From: "copy", To: "again"},
			{From: "again", To: "show"},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(sample(), nil)

	contains := []string{
		"graph TD",
		`start(("start"))`,
		`build_job[["Run 'build' <br/> ⏱️ 30s"]]`,
		`copy[/"copy"/]`,
		`again{"again"}`,
		`show["show"]`,
		"start --> build_job",
		`again -- "yes" --> build_job`,
		`again -- "no" --> show`,
	}
	for _, want := range contains {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\ngot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "again --> show") {
		t.Errorf("loop edges should be drawn as branches only\ngot:\n%s", out)
	}
	if strings.Contains(out, "classDef") {
		t.Errorf("no overlay styles expected without overlay")
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	snap := &domain.RunSnapshot{
		CurrentNodeID: "build-job",
		Nodes: []domain.ExecutionNode{
			{ID: "start", Status: domain.StatusCompleted},
			{ID: "build-job", Status: domain.StatusSyncing},
			{ID: "copy", Status: domain.StatusWaiting},
		},
	}
	out := graph.GenerateMermaid(sample(), graph.OverlayFromSnapshot(snap))

	for _, want := range []string{"class start completed;", "class build_job syncing;"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\ngot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "class copy") {
		t.Errorf("waiting nodes should not be styled\ngot:\n%s", out)
	}
}
