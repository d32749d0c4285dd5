package cardflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/internal/runtime"
	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/loader"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/cardflow/pkg/registry"
)

// Engine is the high-level entry point for the cardflow library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.GraphLoader
	store   ports.VariableStore
	feed    ports.ChangeFeed
	jobs    ports.JobRunner
	inproc  *registry.Registry
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	timeout time.Duration
	seed    []domain.Variable
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Repeated calls chain the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLoader injects the source of the graph definition.
func WithLoader(l ports.GraphLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithGraphFile loads the graph from a YAML or JSON file.
func WithGraphFile(path string) Option {
	return func(e *Engine) {
		e.loader = loader.NewFileLoader(path)
	}
}

// WithStore sets the variable store. Without one, an in-memory store is used.
func WithStore(store ports.VariableStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithChangeFeed sets the feed of upstream variable changes.
// When the store also implements ports.ChangeFeed it is used by default.
func WithChangeFeed(feed ports.ChangeFeed) Option {
	return func(e *Engine) {
		e.feed = feed
	}
}

// WithJobRunner sets the runner that executes worktask jobs.
func WithJobRunner(jobs ports.JobRunner) Option {
	return func(e *Engine) {
		e.jobs = jobs
	}
}

// WithJob registers an in-process job for taskID.
// Task IDs without a registered job go to the runner set by WithJobRunner.
func WithJob(taskID string, fn registry.JobFunction) Option {
	return func(e *Engine) {
		if e.inproc == nil {
			e.inproc = registry.NewRegistry()
		}
		e.inproc.Register(taskID, fn)
	}
}

// WithSyncTimeout bounds how long a worktask waits for its output variable.
func WithSyncTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithVariables seeds the run with variables that override the store's.
func WithVariables(vars ...domain.Variable) Option {
	return func(e *Engine) {
		e.seed = append(e.seed, vars...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New loads the graph and builds an engine ready to Run.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		return nil, errors.New("a graph loader is required (use WithLoader or WithGraphFile)")
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	graph, err := eng.loader.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	if eng.Name == "" {
		eng.Name = graph.Name
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.feed == nil {
		if feed, ok := eng.store.(ports.ChangeFeed); ok {
			eng.feed = feed
		}
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithStore(eng.store),
		runtime.WithInitialVariables(eng.seed...),
	}
	if eng.feed != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithChangeFeed(eng.feed))
	}
	if eng.inproc != nil {
		if eng.jobs != nil {
			eng.inproc.SetFallback(eng.jobs)
		}
		eng.jobs = eng.inproc
	}
	if eng.jobs != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithJobRunner(eng.jobs))
	}
	if eng.timeout > 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithSyncTimeout(eng.timeout))
	}

	eng.runtime, err = runtime.NewEngine(graph, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// Run drives the graph from its start node until it finishes, fails,
// or parks on a worktask awaiting confirmation.
func (e *Engine) Run(ctx context.Context) error {
	return e.runtime.Run(ctx)
}

// CompleteManually confirms a syncing worktask and resumes the run.
func (e *Engine) CompleteManually(ctx context.Context, nodeID string) error {
	return e.runtime.CompleteManually(ctx, nodeID)
}

// NotifySyncComplete reports that variableID is ready upstream.
// It returns the number of waits it satisfied.
func (e *Engine) NotifySyncComplete(variableID string) int {
	return e.runtime.NotifySyncComplete(variableID)
}

// Stop cancels pending waits and detaches from the change feed.
func (e *Engine) Stop() {
	e.runtime.Stop()
}

// Done is closed when the run reaches the end of the graph.
func (e *Engine) Done() <-chan struct{} {
	return e.runtime.Done()
}

// Nodes returns the run state of every node in graph order.
func (e *Engine) Nodes() []domain.ExecutionNode {
	return e.runtime.Snapshot().Nodes
}

// Node returns the run state of one node.
func (e *Engine) Node(id string) (domain.ExecutionNode, bool) {
	return e.runtime.Node(id)
}

// Snapshot returns a copy of the run state.
func (e *Engine) Snapshot() *domain.RunSnapshot {
	return e.runtime.Snapshot()
}

// Variables returns the variables known to the run.
func (e *Engine) Variables() domain.Variables {
	return e.runtime.Variables()
}

// Graph returns the loaded graph definition.
func (e *Engine) Graph() *domain.Graph {
	return e.runtime.Graph()
}

// Feed returns the change feed in use, or nil.
func (e *Engine) Feed() ports.ChangeFeed {
	return e.feed
}

// Store returns the variable store in use.
func (e *Engine) Store() ports.VariableStore {
	return e.store
}
