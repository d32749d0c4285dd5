package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/aretw0/cardflow/pkg/domain"
)

// ErrQuit is returned when the operator leaves a run that is still parked.
var ErrQuit = errors.New("run left unfinished")

// createLogger returns a debug logger on stderr, or a silent one so that log lines
// never interleave with card content on a terminal run.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// Run executes the graph in the terminal. Whenever the run parks on a worktask,
// the operator is prompted on in: an empty line confirms the parked card,
// "complete <id>" confirms a specific one and "quit" leaves the run.
func Run(ctx context.Context, opts Options, in io.Reader, out io.Writer) error {
	logger := createLogger(opts.Debug)
	printer := tui.NewPrinter(out)

	hooks := printer.Hooks()
	if opts.Quiet {
		hooks = domain.LifecycleHooks{}
	}
	engine, cleanup, err := createEngine(opts, logger, hooks)
	if err != nil {
		return err
	}
	defer cleanup()
	defer engine.Stop()

	if !opts.Quiet && tui.IsTerminal(out) {
		tui.PrintBanner(out)
	}

	shown := make(map[string]bool)
	showContent := func() {
		for _, n := range engine.Nodes() {
			key := n.ID + "@" + n.StartedAt.String()
			if n.Output != nil && n.Output.Content != "" && !shown[key] {
				shown[key] = true
				printer.Content(n)
			}
		}
	}

	err = engine.Run(ctx)
	showContent()
	if err != nil {
		return err
	}

	promptCtx, stopPrompt := context.WithCancel(ctx)
	defer stopPrompt()
	prompt := newPromptReader(promptCtx, in)
	for !isDone(engine) {
		parked := syncing(engine)
		if len(parked) == 0 {
			return fmt.Errorf("run halted without a parked worktask")
		}
		fmt.Fprintf(out, "Waiting on %s. Press Enter to confirm, or type 'complete <id>' / 'quit': ", strings.Join(parked, ", "))

		line, readErr := prompt.ReadLine(ctx)
		line = strings.TrimSpace(line)
		if readErr != nil && line == "" {
			if isInterrupted(readErr) {
				return ErrQuit
			}
			return readErr
		}

		target := parked[0]
		switch {
		case line == "quit" || line == "exit":
			return ErrQuit
		case strings.HasPrefix(line, "complete "):
			target = strings.TrimSpace(strings.TrimPrefix(line, "complete "))
		case line != "":
			fmt.Fprintf(out, "Unknown command %q\n", line)
			continue
		}

		if err := engine.CompleteManually(ctx, target); err != nil {
			if errors.Is(err, domain.ErrNotSyncing) || errors.Is(err, domain.ErrNodeNotFound) {
				fmt.Fprintf(out, "Cannot complete %s: %v\n", target, err)
				continue
			}
			showContent()
			return err
		}
		showContent()
	}
	return nil
}

func isDone(engine *cardflow.Engine) bool {
	select {
	case <-engine.Done():
		return true
	default:
		return false
	}
}

func syncing(engine *cardflow.Engine) []string {
	var ids []string
	for _, n := range engine.Nodes() {
		if n.Status == domain.StatusSyncing {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
