package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/interpolate"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/cardflow/pkg/schema"
	"github.com/aretw0/cardflow/pkg/waiter"
	"github.com/google/uuid"
)

// Engine runs a card graph.
type Engine struct {
	graph    *domain.Graph
	handlers *HandlerRegistry

	store  ports.VariableStore
	feed   ports.ChangeFeed
	jobs   ports.JobRunner
	interp *interpolate.Interpolator
	waiter *waiter.Waiter

	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	syncTimeout  time.Duration
	autoComplete bool
	seed         []domain.Variable

	// runMu serializes node execution: Run and manual completion never overlap.
	runMu sync.Mutex

	mu          sync.RWMutex
	runID       string
	nodes       map[string]*domain.ExecutionNode
	vars        domain.Variables
	current     string
	runCounts   map[string]int
	waits       map[string]string // wait id -> node id
	done        chan struct{}
	finished    bool
	stopped     bool
	baseCtx     context.Context
	unsubscribe func()
}

// NewEngine creates an engine for graph.
func NewEngine(graph *domain.Graph, opts ...EngineOption) (*Engine, error) {
	if graph == nil {
		return nil, errors.New("graph is required")
	}
	if _, ok := graph.StartNode(); !ok {
		return nil, fmt.Errorf("graph %q has no start node", graph.Name)
	}

	e := &Engine{
		graph:       graph,
		handlers:    DefaultHandlerRegistry(),
		logger:      logging.NewNop(),
		syncTimeout: domain.DefaultSyncTimeout,
		nodes:       make(map[string]*domain.ExecutionNode),
		vars:        domain.Variables{},
		runCounts:   make(map[string]int),
		waits:       make(map[string]string),
		done:        make(chan struct{}),
		baseCtx:     context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.interp == nil {
		iopts := []interpolate.Option{interpolate.WithLogger(e.logger)}
		if e.store != nil {
			iopts = append(iopts, interpolate.WithFetcher(e.store))
		}
		e.interp = interpolate.New(iopts...)
	}
	e.waiter = waiter.New(
		waiter.WithTimeoutHook(e.onSyncTimeout),
		waiter.WithLogger(e.logger),
	)
	e.resetNodes()
	return e, nil
}

// Run resets the graph and drives it from the start node until it finishes,
// parks on a worktask awaiting confirmation, or a node fails.
func (e *Engine) Run(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if err := e.reset(ctx); err != nil {
		return err
	}
	start, _ := e.graph.StartNode()
	e.logger.InfoContext(ctx, "run started", "run_id", e.RunID(), "graph", e.graph.Name, "start", start.ID)
	return e.drive(ctx, start.ID)
}

// CompleteManually confirms a worktask parked in syncing and resumes the run.
func (e *Engine) CompleteManually(ctx context.Context, nodeID string) error {
	return e.complete(ctx, nodeID, true)
}

// NotifySyncComplete forwards an external "variable ready" signal to pending waits.
// It returns the number of waits fired.
func (e *Engine) NotifySyncComplete(variableID string) int {
	if e.isStopped() {
		return 0
	}
	return e.waiter.NotifySyncComplete(variableID)
}

// Stop ends the run cooperatively. Pending waits are cancelled, the change feed is
// released and late callbacks are ignored. A node already executing is allowed to return.
func (e *Engine) Stop() {
	if e.release() {
		e.logger.Info("run stopped", "run_id", e.RunID())
	}
}

// release marks the run stopped and frees its waits and subscription.
func (e *Engine) release() bool {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return false
	}
	e.stopped = true
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.waits = make(map[string]string)
	e.mu.Unlock()

	e.waiter.CancelAll()
	if unsubscribe != nil {
		unsubscribe()
	}
	return true
}

// Done is closed when the current run reaches a node without successor.
func (e *Engine) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.done
}

// RunID identifies the current run.
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// Snapshot returns a copy of the run state.
func (e *Engine) Snapshot() *domain.RunSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	nodes := make([]domain.ExecutionNode, 0, len(e.graph.Nodes))
	for _, def := range e.graph.Nodes {
		if n, ok := e.nodes[def.ID]; ok {
			nodes = append(nodes, n.Clone())
		}
	}
	return &domain.RunSnapshot{
		RunID:         e.runID,
		CurrentNodeID: e.current,
		Nodes:         nodes,
		Variables:     e.vars.With(),
		Done:          e.finished,
	}
}

// Node returns a copy of a node's run state.
func (e *Engine) Node(id string) (domain.ExecutionNode, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, ok := e.nodes[id]
	if !ok {
		return domain.ExecutionNode{}, false
	}
	return n.Clone(), true
}

// Variables returns the current variable map. Callers must not mutate it.
func (e *Engine) Variables() domain.Variables {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vars
}

// Pending lists the live sync waits.
func (e *Engine) Pending() []waiter.Record {
	return e.waiter.Pending()
}

// Interpolator returns the interpolator used by the handlers.
func (e *Engine) Interpolator() *interpolate.Interpolator {
	return e.interp
}

// Graph returns the graph definition.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

func (e *Engine) resetNodes() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = make(map[string]*domain.ExecutionNode, len(e.graph.Nodes))
	for _, def := range e.graph.Nodes {
		n := def.Clone()
		n.Status = domain.StatusWaiting
		n.Output = nil
		n.StartedAt, n.FinishedAt = time.Time{}, time.Time{}
		e.nodes[n.ID] = &n
	}
}

// reset prepares a fresh run: nodes back to waiting, variables reloaded, feed subscribed.
func (e *Engine) reset(ctx context.Context) error {
	e.release()
	e.resetNodes()

	vars := domain.Variables{}
	if e.store != nil {
		all, err := e.store.FetchAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load variables: %w", err)
		}
		vars = domain.NewVariables(schema.NormalizeVariables(all)...)
	}
	vars = vars.With(schema.NormalizeVariables(e.seed)...)

	e.mu.Lock()
	e.runID = uuid.Must(uuid.NewV7()).String()
	e.vars = vars
	e.current = ""
	e.runCounts = make(map[string]int)
	e.waits = make(map[string]string)
	e.done = make(chan struct{})
	e.finished = false
	e.stopped = false
	e.baseCtx = context.WithoutCancel(ctx)
	e.mu.Unlock()

	if e.feed != nil {
		// The subscription outlives the call that started the run; Stop releases it.
		unsubscribe, err := e.feed.Subscribe(context.WithoutCancel(ctx), e.onChange)
		if err != nil {
			return fmt.Errorf("failed to subscribe to change feed: %w", err)
		}
		e.mu.Lock()
		e.unsubscribe = unsubscribe
		e.mu.Unlock()
	}
	return nil
}

// drive executes nodes one at a time starting at id.
func (e *Engine) drive(ctx context.Context, id string) error {
	for id != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.isStopped() {
			return domain.ErrEngineStopped
		}

		node, err := e.enter(ctx, id)
		if err != nil {
			return err
		}

		rc := newRunContext(ctx, e, node.ID)
		e.execute(ctx, node, rc)

		if rc.err != nil {
			return rc.err
		}
		if !rc.advanced {
			e.logger.InfoContext(ctx, "run parked", "run_id", e.RunID(), "node", node.ID)
			return nil
		}
		id = rc.next
	}
	e.finish(ctx)
	return nil
}

// enter starts a fresh visit of a node: back to waiting, then executing.
// Revisiting a node inside a loop therefore starts a new node instance.
func (e *Engine) enter(ctx context.Context, id string) (domain.ExecutionNode, error) {
	def, ok := e.graph.Node(id)
	if !ok {
		return domain.ExecutionNode{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}

	e.mu.Lock()
	n := def.Clone()
	n.Status = domain.StatusWaiting
	n.Output = nil
	e.nodes[id] = &n
	e.current = id
	e.mu.Unlock()

	e.emitNode(ctx, e.hooks.OnNodeEnter, domain.EventNodeEnter, n, "")

	executing := domain.StatusExecuting
	if err := e.updateNode(ctx, id, domain.NodeUpdate{Status: &executing}); err != nil {
		return domain.ExecutionNode{}, err
	}

	e.mu.Lock()
	e.nodes[id].StartedAt = time.Now()
	out := e.nodes[id].Clone()
	e.mu.Unlock()
	return out, nil
}

func (e *Engine) execute(ctx context.Context, node domain.ExecutionNode, rc *RunContext) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "handler panic", "node", node.ID, "panic", r)
			rc.OnError(node.ID, fmt.Errorf("handler panic: %v", r))
		}
	}()

	h, err := e.handlers.Get(node.Type)
	if err != nil {
		rc.OnError(node.ID, err)
		return
	}
	e.logger.DebugContext(ctx, "executing node", "node", node.ID, "type", node.Type)
	h.Execute(ctx, node, rc)
}

func (e *Engine) finish(ctx context.Context) {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	e.finished = true
	e.current = ""
	close(e.done)
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	runID := e.runID
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	e.logger.InfoContext(ctx, "run finished", "run_id", runID)
}

// updateNode applies a partial update, rejecting illegal status transitions.
func (e *Engine) updateNode(ctx context.Context, id string, u domain.NodeUpdate) error {
	e.mu.Lock()
	n, ok := e.nodes[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}

	from := n.Status
	if u.Status != nil && !domain.CanTransition(n.Type, from, *u.Status) {
		e.mu.Unlock()
		err := &TransitionError{NodeID: id, From: from, To: *u.Status}
		e.logger.WarnContext(ctx, "rejected node update", "node", id, "error", err)
		return err
	}

	if u.Status != nil {
		n.Status = *u.Status
		if n.Status.Terminal() {
			n.FinishedAt = time.Now()
		}
	}
	if u.Output != nil {
		n.Output = u.Output.Clone()
	}
	if u.NextNodeID != nil {
		n.NextNodeID = *u.NextNodeID
	}
	changed := u.Status != nil && *u.Status != from
	snapshot := n.Clone()
	e.mu.Unlock()

	if changed {
		errMsg := ""
		if snapshot.Output != nil {
			errMsg = snapshot.Output.Error
		}
		e.emitNode(ctx, e.hooks.OnNodeStatus, domain.EventNodeStatus, snapshot, errMsg)
	}
	return nil
}

// patchOutput applies fn to a copy of the node output under the state lock.
// It reports false when the node is not in the wanted status.
func (e *Engine) patchOutput(id string, want domain.NodeStatus, fn func(*domain.NodeOutput)) (domain.ExecutionNode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[id]
	if !ok || n.Status != want {
		return domain.ExecutionNode{}, false
	}
	out := n.Output.Clone()
	if out == nil {
		out = &domain.NodeOutput{}
	}
	fn(out)
	n.Output = out
	return n.Clone(), true
}

func (e *Engine) mergeVariables(vars ...domain.Variable) {
	if len(vars) == 0 {
		return
	}
	e.mu.Lock()
	e.vars = e.vars.With(vars...)
	e.mu.Unlock()
}

func (e *Engine) isStopped() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stopped
}

func (e *Engine) callbackContext() context.Context {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.baseCtx
}
