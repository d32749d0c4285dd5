package runtime

import (
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
)

// ApplyCompletionRule decides whether node may be marked completed and advance
// given the output its handler produced. It is the single source of truth for
// completion; handlers consult it before advancing.
func ApplyCompletionRule(node domain.ExecutionNode, out *domain.NodeOutput) bool {
	if out == nil || out.Error != "" {
		return false
	}
	switch node.Type {
	case domain.NodeTypeStart:
		return true
	case domain.NodeTypeDisplay:
		return strings.TrimSpace(out.Content) != ""
	case domain.NodeTypeWorkTask:
		// Never on sync alone: an explicit confirmation is required.
		return out.ManuallyCompleted || out.AutoCompleted
	case domain.NodeTypeAssign:
		for _, a := range out.Assignments {
			if a.OK {
				return true
			}
		}
		return false
	case domain.NodeTypeLoop:
		return out.LoopResult == domain.LoopYes || out.LoopResult == domain.LoopNo
	}
	return false
}

// advance records out, marks node completed and moves to next when the completion
// rule allows it. It reports whether the run advanced.
func advance(rc *RunContext, node domain.ExecutionNode, out *domain.NodeOutput, next string) bool {
	if !ApplyCompletionRule(node, out) {
		return false
	}
	completed := domain.StatusCompleted
	if err := rc.UpdateNode(node.ID, domain.NodeUpdate{Status: &completed, Output: out}); err != nil {
		rc.OnError(node.ID, err)
		return false
	}
	rc.MoveToNextNode(next)
	return true
}
