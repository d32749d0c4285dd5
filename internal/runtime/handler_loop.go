package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
)

// LoopHandler evaluates its condition and branches to the yes or no target.
type LoopHandler struct{}

func (LoopHandler) Execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext) {
	cfg, err := dto.DecodeLoop(node)
	if err != nil {
		rc.OnError(node.ID, err)
		return
	}

	out := &domain.NodeOutput{}
	switch cfg.ConditionType {
	case dto.ConditionRunCount:
		// The visit being evaluated is counted before comparing.
		out.RunCount = rc.IncrementRunCount(node.ID)
		out.LoopResult = domain.LoopNo
		if out.RunCount < cfg.MaxRuns {
			out.LoopResult = domain.LoopYes
		}
	case dto.ConditionVariable:
		v, ok := currentValue(ctx, rc, cfg.Variable)
		if !ok {
			rc.OnError(node.ID, &domain.NodeConfigError{NodeID: node.ID, Reason: fmt.Sprintf("variable %s not found", cfg.Variable)})
			return
		}
		expected := rc.Interpolator().Resolve(ctx, cfg.Expected, rc.Variables())
		out.LoopResult = domain.LoopNo
		if strings.TrimSpace(v.String()) == strings.TrimSpace(expected) {
			out.LoopResult = domain.LoopYes
		}
	}

	target := cfg.No
	if out.LoopResult == domain.LoopYes {
		target = cfg.Yes
	}
	if target == "" {
		rc.OnError(node.ID, &domain.NodeConfigError{NodeID: node.ID, Reason: fmt.Sprintf("no target for %q branch", out.LoopResult)})
		return
	}

	rc.Logger().DebugContext(ctx, "loop evaluated", "node", node.ID, "result", out.LoopResult, "run_count", out.RunCount, "next", target)
	if err := rc.UpdateNode(node.ID, domain.NodeUpdate{NextNodeID: &target}); err != nil {
		rc.OnError(node.ID, err)
		return
	}
	if !advance(rc, node, out, target) && rc.err == nil {
		rc.OnError(node.ID, &domain.NodeConfigError{NodeID: node.ID, Reason: "loop produced no result"})
	}
}

// currentValue reads a variable by storage id, preferring the store's copy.
func currentValue(ctx context.Context, rc *RunContext, id string) (domain.Variable, bool) {
	if store := rc.Store(); store != nil {
		if parsed, ok := identifier.ParseSystemID(id); ok {
			if v, err := store.FetchOne(ctx, parsed.Tagged()); err == nil {
				return v, true
			}
		}
	}
	return rc.Interpolator().Lookup(ctx, id, rc.Variables())
}
