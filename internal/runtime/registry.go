package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/cardflow/pkg/domain"
)

// Handler executes one node type.
// Handlers record status and output through rc and call rc.MoveToNextNode themselves;
// the engine never advances on their behalf.
type Handler interface {
	Execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, node domain.ExecutionNode, rc *RunContext)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext) {
	f(ctx, node, rc)
}

// HandlerRegistry maps node types to their handlers.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[domain.NodeType]Handler
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[domain.NodeType]Handler)}
}

// DefaultHandlerRegistry returns a registry with the five built-in card handlers.
func DefaultHandlerRegistry() *HandlerRegistry {
	r := NewHandlerRegistry()
	r.Register(domain.NodeTypeStart, StartHandler{})
	r.Register(domain.NodeTypeWorkTask, WorkTaskHandler{})
	r.Register(domain.NodeTypeDisplay, DisplayHandler{})
	r.Register(domain.NodeTypeAssign, AssignHandler{})
	r.Register(domain.NodeTypeLoop, LoopHandler{})
	return r
}

// Register adds or replaces the handler for t.
func (r *HandlerRegistry) Register(t domain.NodeType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
}

// Get returns the handler for t.
func (r *HandlerRegistry) Get(t domain.NodeType) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	if !ok {
		return nil, &UnknownNodeTypeError{Type: t}
	}
	return h, nil
}

// Types lists the registered node types in name order.
func (r *HandlerRegistry) Types() []domain.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.NodeType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UnknownNodeTypeError is returned when a node type has no registered handler.
type UnknownNodeTypeError struct {
	Type domain.NodeType
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("no handler registered for node type %q", e.Type)
}
