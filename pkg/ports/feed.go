package ports

import (
	"context"

	"github.com/aretw0/cardflow/pkg/domain"
)

// ChangeFeed pushes variable change events.
// Implementations call the handler from their own goroutine; the returned function
// stops delivery and is safe to call more than once.
type ChangeFeed interface {
	Subscribe(ctx context.Context, handler func(domain.ChangeEvent)) (unsubscribe func(), err error)
}
