package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/gate"
)

func testModel() model {
	t := &TUI{done: make(chan struct{}), interrupt: func() {}}
	return newModel(t)
}

func apply(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(model)
		require.True(t, ok)
	}
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func permissionRequest() models.ExecutionRequest {
	return models.ExecutionRequest{
		Call: models.ToolCall{
			ID:   "call-1",
			Name: models.ToolShellExec,
			Args: map[string]any{"command": "rm -rf build"},
		},
		Tier: models.TierDestructive,
	}
}

func TestPermissionAnswerReachesItsRequest(t *testing.T) {
	reply := make(chan gate.Answer, 1)
	m := apply(t, testModel(),
		permissionMsg{req: permissionRequest(), reply: reply},
		keyRune('y'),
	)

	select {
	case answer := <-reply:
		assert.Equal(t, gate.AnswerAllow, answer)
	default:
		t.Fatal("expected an answer on the request's reply channel")
	}
	assert.Equal(t, modeBusy, m.mode)
}

func TestAnswerAfterCancelledPromptNeverApprovesALaterOne(t *testing.T) {
	stale := make(chan gate.Answer, 1)
	fresh := make(chan gate.Answer, 1)

	// A "y" races in while the first prompt's reader has already given
	// up. It lands on the first prompt's channel only.
	m := apply(t, testModel(),
		permissionMsg{req: permissionRequest(), reply: stale},
		keyRune('y'),
		permissionDoneMsg{},
		permissionMsg{req: permissionRequest(), reply: fresh},
	)

	select {
	case answer := <-fresh:
		t.Fatalf("later prompt answered %q without a keypress", answer)
	default:
	}

	m = apply(t, m, keyRune('n'))
	select {
	case answer := <-fresh:
		assert.Equal(t, gate.AnswerDeny, answer)
	default:
		t.Fatal("expected the later prompt's own answer")
	}
}

func TestCancelledPromptClearsTheReply(t *testing.T) {
	stale := make(chan gate.Answer, 1)
	m := apply(t, testModel(),
		permissionMsg{req: permissionRequest(), reply: stale},
		permissionDoneMsg{},
		keyRune('y'),
	)

	assert.Empty(t, stale, "keypress after dismissal must go nowhere")
	assert.Equal(t, modeBusy, m.mode)
}

func TestSubmittedLineGoesToItsOwnReader(t *testing.T) {
	abandoned := make(chan string, 1)
	m := apply(t, testModel(),
		readyMsg{reply: abandoned},
		keyRune('l'), keyRune('s'),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	select {
	case line := <-abandoned:
		assert.Equal(t, "ls", line)
	default:
		t.Fatal("expected the submitted line on the pending reader's channel")
	}

	// A fresh reader starts clean even though a line was submitted
	// against the previous one.
	current := make(chan string, 1)
	m = apply(t, m, readyMsg{reply: current})
	select {
	case line := <-current:
		t.Fatalf("fresh reader received stale line %q", line)
	default:
	}
	_ = m
}
