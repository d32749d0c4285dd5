package ports

import (
	"context"

	"github.com/aretw0/cardflow/pkg/domain"
)

// GraphLoader defines how the engine retrieves the card graph.
// This allows the storage layer (files, memory) to be decoupled.
type GraphLoader interface {
	Load(ctx context.Context) (*domain.Graph, error)
}
