package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var statusColors = map[domain.NodeStatus]string{
	domain.StatusWaiting:   "#9ca3af",
	domain.StatusExecuting: "#60a5fa",
	domain.StatusSyncing:   "#fbbf24",
	domain.StatusCompleted: "#34d399",
	domain.StatusError:     "#f87171",
}

// Printer writes node progress to a terminal.
// Display content is rendered as markdown when the output is a TTY.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	out    *termenv.Output
	render func(string) (string, error)
}

// PrinterOption configures the Printer.
type PrinterOption func(*Printer)

// WithProfile forces a color profile, e.g. termenv.Ascii for plain output.
func WithProfile(p termenv.Profile) PrinterOption {
	return func(pr *Printer) {
		pr.out = termenv.NewOutput(pr.w, termenv.WithProfile(p))
	}
}

// WithMarkdown enables or disables glamour rendering of display content.
func WithMarkdown(enabled bool) PrinterOption {
	return func(pr *Printer) {
		if enabled {
			pr.render = NewRenderer()
		} else {
			pr.render = nil
		}
	}
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{
		w:   w,
		out: termenv.NewOutput(w),
	}
	if IsTerminal(w) {
		p.render = NewRenderer()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StatusLine formats a colored one-line summary of a node status.
func (p *Printer) StatusLine(id string, t domain.NodeType, status domain.NodeStatus) string {
	badge := p.out.String(fmt.Sprintf("[%s]", status)).Foreground(p.out.Color(statusColors[status]))
	if status == domain.StatusError || status == domain.StatusSyncing {
		badge = badge.Bold()
	}
	return fmt.Sprintf("%s %s (%s)", badge, id, t)
}

// Hooks returns lifecycle hooks that print status changes.
func (p *Printer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStatus: func(_ context.Context, e *domain.NodeEvent) {
			p.mu.Lock()
			defer p.mu.Unlock()
			line := p.StatusLine(e.NodeID, e.NodeType, e.Status)
			if e.Error != "" {
				line += ": " + e.Error
			}
			fmt.Fprintln(p.w, line)
		},
		OnSync: func(_ context.Context, e *domain.SyncEvent) {
			p.mu.Lock()
			defer p.mu.Unlock()
			switch {
			case e.TimedOut:
				fmt.Fprintf(p.w, "  ⏱️  %s timed out waiting for %s, awaiting confirmation\n", e.NodeID, e.VariableID)
			case e.Matched:
				fmt.Fprintf(p.w, "  ✓ %s received %s\n", e.NodeID, e.VariableID)
			default:
				fmt.Fprintf(p.w, "  … %s waiting for %s\n", e.NodeID, e.VariableID)
			}
		},
	}
}

// Content prints the resolved text of a start or display node.
// Identifiers left unresolved are shown in their display form.
func (p *Printer) Content(n domain.ExecutionNode) {
	if n.Output == nil || strings.TrimSpace(n.Output.Content) == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	text := n.Output.Content
	if n.Output.Display != "" {
		text = n.Output.Display
	}
	if p.render != nil {
		if rendered, err := p.render(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(p.w, strings.TrimRight(text, "\n"))
}
