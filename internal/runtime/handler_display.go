package runtime

import (
	"context"

	"github.com/aretw0/cardflow/internal/dto"
	"github.com/aretw0/cardflow/pkg/domain"
)

// DisplayHandler resolves its text and advances as soon as the result is non-empty.
// Presentation is left to observers of the node output.
type DisplayHandler struct{}

func (DisplayHandler) Execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext) {
	var cfg dto.DisplayConfig
	if err := dto.DecodeConfig(node, &cfg); err != nil {
		rc.OnError(node.ID, err)
		return
	}
	out := textOutput(ctx, rc, cfg.Text)
	if !advance(rc, node, out, "") && rc.err == nil {
		rc.OnError(node.ID, &domain.NodeConfigError{NodeID: node.ID, Reason: "display text is empty"})
	}
}
