package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/pkg/adapters/file"
	"github.com/aretw0/cardflow/pkg/adapters/process"
	redisadapter "github.com/aretw0/cardflow/pkg/adapters/redis"
	"github.com/aretw0/cardflow/pkg/adapters/sse"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/ports"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultJobsFile is looked up next to the graph file when no jobs file is given.
const DefaultJobsFile = "jobs.yaml"

// createEngine initializes an engine with standard CLI conventions.
func createEngine(opts Options, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*cardflow.Engine, func(), error) {
	engineOpts := []cardflow.Option{
		cardflow.WithGraphFile(opts.GraphPath),
		cardflow.WithLogger(logger),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, cardflow.WithLifecycleHooks(createDebugHooks(logger)))
	}
	for _, h := range hooks {
		engineOpts = append(engineOpts, cardflow.WithLifecycleHooks(h))
	}
	if opts.SyncTimeout > 0 {
		engineOpts = append(engineOpts, cardflow.WithSyncTimeout(opts.SyncTimeout))
	}

	seed, err := parseVars(opts.Vars)
	if err != nil {
		return nil, nil, err
	}
	engineOpts = append(engineOpts, cardflow.WithVariables(seed...))

	jobs, err := createJobRunner(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	engineOpts = append(engineOpts, cardflow.WithJobRunner(jobs))

	cleanup := func() {}
	switch {
	case opts.RedisURL != "":
		redisOpts, err := goredis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := goredis.NewClient(redisOpts)
		store := redisadapter.NewFromClient(client)
		engineOpts = append(engineOpts,
			cardflow.WithStore(store),
			cardflow.WithChangeFeed(redisadapter.NewFeed(client, redisadapter.WithFeedLogger(logger))),
		)
		cleanup = func() { _ = store.Close() }
	case opts.StorePath != "":
		engineOpts = append(engineOpts, cardflow.WithStore(file.New(opts.StorePath)))
	}
	if opts.FeedURL != "" {
		engineOpts = append(engineOpts, cardflow.WithChangeFeed(sse.NewFeed(opts.FeedURL, sse.WithLogger(logger))))
	}

	engine, err := cardflow.New(engineOpts...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, cleanup, nil
}

// createJobRunner builds the process runner from the jobs allow-list.
// Smart default: a jobs.yaml next to the graph file is picked up automatically.
func createJobRunner(opts Options, logger *slog.Logger) (ports.JobRunner, error) {
	path := opts.JobsPath
	if path == "" {
		candidate := filepath.Join(filepath.Dir(opts.GraphPath), DefaultJobsFile)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	runnerOpts := []process.RunnerOption{
		process.WithLogger(logger),
		process.WithBaseDir(filepath.Dir(opts.GraphPath)),
	}
	if path != "" {
		jobs, err := process.LoadJobs(path)
		if err != nil {
			return nil, err
		}
		runnerOpts = append(runnerOpts, process.WithRegistry(jobs))
	}
	return process.NewRunner(runnerOpts...), nil
}

// parseVars turns "identifier=value" pairs into variables.
func parseVars(pairs []string) ([]domain.Variable, error) {
	vars := make([]domain.Variable, 0, len(pairs))
	for _, pair := range pairs {
		id, value, ok := cutLast(pair)
		if !ok {
			return nil, fmt.Errorf("invalid variable %q: expected identifier=value", pair)
		}
		parsed, ok := identifier.ParseSystemID(id)
		if !ok {
			return nil, fmt.Errorf("invalid variable %q: malformed identifier", pair)
		}
		vars = append(vars, domain.Variable{
			EntityType: parsed.EntityType,
			EntityID:   parsed.EntityID,
			Field:      parsed.Field,
			Value:      value,
			SourceName: "cli",
		})
	}
	return vars, nil
}

// cutLast splits on the "=" that separates the value. Tagged identifiers end in "-=",
// so the separator is the first "=" following that suffix when present.
func cutLast(pair string) (string, string, bool) {
	if i := strings.Index(pair, "-=="); i >= 0 {
		return pair[:i+2], pair[i+3:], true
	}
	return strings.Cut(pair, "=")
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Enter Node", "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Leave Node", "node_id", e.NodeID)
		},
		OnSync: func(ctx context.Context, e *domain.SyncEvent) {
			logger.Debug("Sync", "node_id", e.NodeID, "variable_id", e.VariableID, "matched", e.Matched, "timed_out", e.TimedOut)
		},
	}
}
