package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/interpolate"
	"github.com/aretw0/cardflow/pkg/ports"
)

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
// Hooks passed in several calls are merged in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithStore connects the engine to the backend variable store.
func WithStore(store ports.VariableStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

// WithChangeFeed subscribes the engine to upstream variable changes during a run.
func WithChangeFeed(feed ports.ChangeFeed) EngineOption {
	return func(e *Engine) {
		e.feed = feed
	}
}

// WithJobRunner sets the runner used by worktask cards.
func WithJobRunner(jobs ports.JobRunner) EngineOption {
	return func(e *Engine) {
		e.jobs = jobs
	}
}

// WithInterpolator overrides the text interpolator.
// By default one is built on top of the configured store.
func WithInterpolator(interp *interpolate.Interpolator) EngineOption {
	return func(e *Engine) {
		e.interp = interp
	}
}

// WithSyncTimeout sets the default wait for worktask outputs.
func WithSyncTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.syncTimeout = d
	}
}

// WithHandler registers or replaces the handler of a node type.
func WithHandler(t domain.NodeType, h Handler) EngineOption {
	return func(e *Engine) {
		e.handlers.Register(t, h)
	}
}

// WithAutoCompleteOnSync lets a matched sync notification complete a worktask
// without manual confirmation. Intended for test doubles and unattended demos.
func WithAutoCompleteOnSync(enabled bool) EngineOption {
	return func(e *Engine) {
		e.autoComplete = enabled
	}
}

// WithInitialVariables seeds the variable map used when no store is configured,
// or merged over the store contents otherwise.
func WithInitialVariables(vars ...domain.Variable) EngineOption {
	return func(e *Engine) {
		e.seed = append(e.seed, vars...)
	}
}
