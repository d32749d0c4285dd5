// Package registry provides an in-process ports.JobRunner keyed by task ID.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/cardflow/pkg/ports"
)

// ErrJobNotFound is returned for task IDs that are neither registered nor handled by a fallback.
var ErrJobNotFound = errors.New("job not found")

// JobFunction defines the signature for an in-process job.
type JobFunction func(ctx context.Context, taskID string) (ports.JobResult, error)

// Registry manages the available jobs.
type Registry struct {
	mu       sync.RWMutex
	jobs     map[string]JobFunction
	fallback ports.JobRunner
}

var _ ports.JobRunner = (*Registry)(nil)

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]JobFunction),
	}
}

// Register adds a job to the registry.
// If a job with the same task ID exists, it is overwritten.
func (r *Registry) Register(taskID string, fn JobFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[taskID] = fn
}

// SetFallback sets the runner used for task IDs missing from the registry.
func (r *Registry) SetFallback(runner ports.JobRunner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = runner
}

// Tasks lists the registered task IDs in order.
func (r *Registry) Tasks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Execute looks up a job by task ID and executes it.
func (r *Registry) Execute(ctx context.Context, taskID string) (ports.JobResult, error) {
	r.mu.RLock()
	fn, ok := r.jobs[taskID]
	fallback := r.fallback
	r.mu.RUnlock()

	if ok {
		return fn(ctx, taskID)
	}
	if fallback != nil {
		return fallback.Execute(ctx, taskID)
	}
	return ports.JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, taskID)
}
