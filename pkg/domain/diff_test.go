package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		old       *RunSnapshot
		new       *RunSnapshot
		wantDiff  *RunDiff // nil means we expect no diff
		wantNodes []string
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &RunSnapshot{
				RunID:         "run-1",
				CurrentNodeID: "start",
				Nodes:         []ExecutionNode{{ID: "start", Status: StatusExecuting}},
				Variables:     NewVariables(Variable{EntityType: "custom", EntityID: "x", Field: "value", Value: 1}),
			},
			wantDiff: &RunDiff{
				RunID:         "run-1",
				CurrentNodeID: &[]string{"start"}[0],
				Variables:     map[string]any{"custom_x_value": 1},
			},
			wantNodes: []string{"start"},
		},
		{
			name: "No Changes",
			old: &RunSnapshot{
				RunID:         "run-1",
				CurrentNodeID: "start",
				Nodes:         []ExecutionNode{{ID: "start", Status: StatusCompleted}},
			},
			new: &RunSnapshot{
				RunID:         "run-1",
				CurrentNodeID: "start",
				Nodes:         []ExecutionNode{{ID: "start", Status: StatusCompleted}},
			},
			wantDiff: nil,
		},
		{
			name: "Status Change & Done",
			old: &RunSnapshot{
				RunID:         "run-1",
				CurrentNodeID: "end",
				Nodes:         []ExecutionNode{{ID: "a", Status: StatusCompleted}, {ID: "end", Status: StatusExecuting}},
			},
			new: &RunSnapshot{
				RunID:         "run-1",
				CurrentNodeID: "end",
				Nodes:         []ExecutionNode{{ID: "a", Status: StatusCompleted}, {ID: "end", Status: StatusCompleted}},
				Done:          true,
			},
			wantDiff: &RunDiff{
				RunID: "run-1",
				Done:  &[]bool{true}[0],
			},
			wantNodes: []string{"end"},
		},
		{
			name: "Variable Deletion",
			old: &RunSnapshot{
				Variables: NewVariables(Variable{EntityID: "a", Field: "f", Value: 1}, Variable{EntityID: "b", Field: "f", Value: 2}),
			},
			new: &RunSnapshot{
				Variables: NewVariables(Variable{EntityID: "a", Field: "f", Value: 1}),
			},
			wantDiff: &RunDiff{
				Variables: map[string]any{"b_f": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if got.RunID != tt.wantDiff.RunID {
				t.Errorf("Diff().RunID = %v, want %v", got.RunID, tt.wantDiff.RunID)
			}
			if !reflect.DeepEqual(got.Variables, tt.wantDiff.Variables) {
				t.Errorf("Diff().Variables = %v, want %v", got.Variables, tt.wantDiff.Variables)
			}
			if !equalPtr(got.CurrentNodeID, tt.wantDiff.CurrentNodeID) {
				t.Errorf("Diff().CurrentNodeID = %v, want %v", got.CurrentNodeID, tt.wantDiff.CurrentNodeID)
			}
			if !equalPtr(got.Done, tt.wantDiff.Done) {
				t.Errorf("Diff().Done = %v, want %v", got.Done, tt.wantDiff.Done)
			}
			var ids []string
			for _, n := range got.Nodes {
				ids = append(ids, n.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantNodes) {
				t.Errorf("Diff().Nodes = %v, want %v", ids, tt.wantNodes)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &RunSnapshot{Variables: NewVariables(Variable{EntityID: "a", Field: "f", Value: 1}, Variable{EntityID: "b", Field: "f", Value: 2})}
		s2 := &RunSnapshot{Variables: NewVariables(Variable{EntityID: "a", Field: "f", Value: 1})}
		diff := Diff(s1, s2)

		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b_f":null`) {
			t.Errorf("JSON should contain 'b_f':null for deletion, got: %s", string(bytes))
		}
		if strings.Contains(string(bytes), `"nodes"`) {
			t.Errorf("JSON should not contain 'nodes' when unchanged, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
