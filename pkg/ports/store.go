package ports

import (
	"context"

	"github.com/aretw0/cardflow/pkg/domain"
)

// VariableStore is the engine's only view of the backend variable store.
// Identifiers may be passed in any system form (tagged, bare, legacy); adapters
// normalize them once, at the edge.
type VariableStore interface {
	// FetchAll returns every variable visible to the run.
	FetchAll(ctx context.Context) ([]domain.Variable, error)

	// FetchOne returns a single variable.
	// Returns domain.ErrVariableNotFound if no variable matches.
	FetchOne(ctx context.Context, systemID string) (domain.Variable, error)

	// Update requests a new value for a variable.
	Update(ctx context.Context, systemID string, value any) error
}
