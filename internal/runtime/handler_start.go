package runtime

import (
	"context"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
)

// StartHandler resolves the welcome text and advances unconditionally.
type StartHandler struct{}

func (StartHandler) Execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext) {
	var cfg dto.StartConfig
	if err := dto.DecodeConfig(node, &cfg); err != nil {
		rc.OnError(node.ID, err)
		return
	}
	advance(rc, node, textOutput(ctx, rc, cfg.WelcomeText), "")
}

// textOutput resolves text for a start or display node. Every identifier in text,
// resolved or not, is registered in the display index.
func textOutput(ctx context.Context, rc *RunContext, text string) *domain.NodeOutput {
	interp := rc.Interpolator()
	vars := rc.Variables()
	interp.ToDisplay(text, vars)

	out := &domain.NodeOutput{Content: interp.Resolve(ctx, text, vars)}
	if display := interp.ToDisplay(out.Content, vars); display != out.Content {
		out.Display = display
	}
	return out
}
