package tui_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestPrinter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPrinter(&buf, tui.WithProfile(termenv.Ascii))
	assert.False(t, tui.IsTerminal(&buf))

	hooks := p.Hooks()
	hooks.OnNodeStatus(context.Background(), &domain.NodeEvent{NodeID: "work", NodeType: domain.NodeTypeWorkTask, Status: domain.StatusSyncing})
	hooks.OnNodeStatus(context.Background(), &domain.NodeEvent{NodeID: "show", NodeType: domain.NodeTypeDisplay, Status: domain.StatusError, Error: "empty text"})
	hooks.OnSync(context.Background(), &domain.SyncEvent{NodeID: "work", VariableID: "@gv_task_t1_output-=", TimedOut: true})

	out := buf.String()
	assert.Contains(t, out, "[syncing] work (worktask)")
	assert.Contains(t, out, "[error] show (display): empty text")
	assert.Contains(t, out, "work timed out waiting for @gv_task_t1_output-=")
}

func TestPrinter_Content(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPrinter(&buf, tui.WithProfile(termenv.Ascii), tui.WithMarkdown(false))

	p.Content(domain.ExecutionNode{ID: "empty"})
	assert.Empty(t, buf.String())

	p.Content(domain.ExecutionNode{ID: "show", Output: &domain.NodeOutput{Content: "42 units\n"}})
	assert.Equal(t, "42 units\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), `\___\__,_|`)
}

func TestPrinter_ContentPrefersDisplayForm(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPrinter(&buf, tui.WithProfile(termenv.Ascii), tui.WithMarkdown(false))

	p.Content(domain.ExecutionNode{ID: "show", Output: &domain.NodeOutput{
		Content: "hello @gv_npc_ghost_name-=",
		Display: "hello Unknown.name#ghos",
	}})
	assert.Equal(t, "hello Unknown.name#ghos\n", buf.String())
}
