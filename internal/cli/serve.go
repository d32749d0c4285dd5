package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/internal/metrics"
	httpadapter "github.com/aretw0/cardflow/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// shutdownTimeout gives outstanding requests a deadline for completion.
const shutdownTimeout = 5 * time.Second

// Serve runs the graph and exposes it over HTTP until ctx is cancelled.
// Worktasks are confirmed through POST /nodes/{id}/complete.
func Serve(ctx context.Context, opts ServeOptions, out io.Writer) error {
	// A server has no terminal UI to protect, so it logs at info unless debugging.
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	api := httpadapter.NewServer(nil, httpadapter.WithLogger(logger), httpadapter.WithGatherer(reg))
	engine, cleanup, err := createEngine(opts.Options, logger, m.Hooks(), api.Hooks())
	if err != nil {
		return err
	}
	defer cleanup()
	defer engine.Stop()
	api.Engine = engine

	if feed := engine.Feed(); feed != nil {
		stop, err := api.Relay(ctx, feed)
		if err != nil {
			return fmt.Errorf("failed to relay change feed: %w", err)
		}
		defer stop()
	}

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: api.Handler(),
		// SSE streams end with ctx instead of holding Shutdown open.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "Starting cardflow server on %s\n", srv.Addr)
		fmt.Fprintf(out, "Serving graph: %s\n", opts.GraphPath)
		serverErrors <- srv.ListenAndServe()
	}()

	if err := engine.Run(ctx); err != nil {
		logger.Error("run halted", "error", err)
	}

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		fmt.Fprintln(out, "\nStart shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(out, "Graceful shutdown did not complete in %v: %v\n", shutdownTimeout, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Fprintln(out, "cardflow server stopped gracefully")
		return nil
	}
}
