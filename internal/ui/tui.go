// Package ui is the terminal front end. A bubbletea program owns the
// screen; the agent loop talks to it through TUI, which bridges
// blocking calls onto program messages and channels.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/gate"
)

// TUI bridges the agent loop to the bubbletea program. Its methods are
// safe to call from the loop goroutine while the program runs.
type TUI struct {
	program   *tea.Program
	done      chan struct{}
	interrupt func()
}

// Option configures the TUI.
type Option func(*TUI)

// WithInterrupt sets the callback fired on Ctrl+C.
func WithInterrupt(fn func()) Option {
	return func(t *TUI) { t.interrupt = fn }
}

// NewTUI creates the terminal front end. Call Start before using it.
func NewTUI(opts ...Option) *TUI {
	t := &TUI{
		done:      make(chan struct{}),
		interrupt: func() {},
	}
	for _, opt := range opts {
		opt(t)
	}

	m := newModel(t)
	t.program = tea.NewProgram(m, tea.WithAltScreen())
	return t
}

// Start runs the bubbletea program until it quits.
func (t *TUI) Start() error {
	defer close(t.done)
	_, err := t.program.Run()
	return err
}

// Quit asks the program to exit.
func (t *TUI) Quit() {
	t.program.Send(quitMsg{})
}

// ReadInput blocks for the next submitted line. Each call carries its
// own reply channel, so a line racing a cancelled read is dropped
// rather than delivered to a later call.
func (t *TUI) ReadInput(ctx context.Context) (string, error) {
	reply := make(chan string, 1)
	t.program.Send(readyMsg{reply: reply})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.done:
		return "", io.EOF
	case line := <-reply:
		return line, nil
	}
}

// ReadPermission shows the approval prompt and blocks for an answer.
// The reply channel is per request: an answer racing a cancellation
// lands in the abandoned channel and can never approve a later prompt.
func (t *TUI) ReadPermission(ctx context.Context, req models.ExecutionRequest) (gate.Answer, error) {
	reply := make(chan gate.Answer, 1)
	t.program.Send(permissionMsg{req: req, reply: reply})
	select {
	case <-ctx.Done():
		t.program.Send(permissionDoneMsg{})
		return gate.AnswerDeny, ctx.Err()
	case <-t.done:
		return gate.AnswerDeny, io.EOF
	case answer := <-reply:
		return answer, nil
	}
}

// WriteMessage renders a completed model response.
func (t *TUI) WriteMessage(msg string) {
	t.program.Send(messageMsg{text: msg})
}

// WriteStatus updates the transient status line.
func (t *TUI) WriteStatus(status string) {
	t.program.Send(statusMsg{text: status})
}

type mode int

const (
	modeBusy mode = iota
	modeInput
	modePermission
)

type (
	readyMsg   struct{ reply chan<- string }
	quitMsg    struct{}
	messageMsg struct{ text string }
	statusMsg  struct{ text string }

	permissionMsg struct {
		req   models.ExecutionRequest
		reply chan<- gate.Answer
	}
	permissionDoneMsg struct{}
)

type model struct {
	tui      *TUI
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	mode        mode
	status      string
	pending     models.ExecutionRequest
	inputReply  chan<- string
	answerReply chan<- gate.Answer
	lines       []string
	width       int
}

func newModel(t *TUI) model {
	ti := textinput.New()
	ti.Placeholder = "ask anything, !cmd for shell, exit to quit"
	ti.Prompt = promptStyle.Render("> ")
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	return model{
		tui:      t,
		input:    ti,
		spin:     sp,
		renderer: renderer,
		mode:     modeBusy,
	}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case quitMsg:
		return m, tea.Quit

	case readyMsg:
		m.mode = modeInput
		m.status = ""
		m.inputReply = msg.reply
		m.input.Focus()
		return m, textinput.Blink

	case messageMsg:
		m.lines = append(m.lines, m.render(msg.text))
		return m, nil

	case statusMsg:
		m.status = msg.text
		return m, nil

	case permissionMsg:
		m.mode = modePermission
		m.pending = msg.req
		m.answerReply = msg.reply
		m.input.Blur()
		return m, nil

	case permissionDoneMsg:
		if m.mode == modePermission {
			m.mode = modeBusy
		}
		m.answerReply = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.tui.interrupt()
		return m, nil
	}

	switch m.mode {
	case modePermission:
		switch strings.ToLower(msg.String()) {
		case "y":
			return m.answer(gate.AnswerAllow)
		case "a":
			return m.answer(gate.AnswerAllowSession)
		case "n", "esc":
			return m.answer(gate.AnswerDeny)
		}
		return m, nil

	case modeInput:
		if msg.Type == tea.KeyEnter {
			line := m.input.Value()
			m.input.Reset()
			m.input.Blur()
			m.mode = modeBusy
			m.lines = append(m.lines, userStyle.Render("you: ")+line)
			if m.inputReply != nil {
				select {
				case m.inputReply <- line:
				default:
				}
				m.inputReply = nil
			}
			if strings.TrimSpace(line) == "exit" || strings.TrimSpace(line) == "quit" {
				return m, tea.Quit
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) answer(a gate.Answer) (tea.Model, tea.Cmd) {
	m.mode = modeBusy
	if m.answerReply != nil {
		select {
		case m.answerReply <- a:
		default:
		}
		m.answerReply = nil
	}
	return m, nil
}

func (m model) render(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m model) View() string {
	var b strings.Builder

	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch m.mode {
	case modePermission:
		b.WriteString(m.permissionView())
	case modeInput:
		b.WriteString("\n")
		b.WriteString(m.input.View())
	default:
		b.WriteString("\n")
		b.WriteString(m.spin.View())
		b.WriteString(statusStyle.Render(" " + m.status))
	}

	return b.String()
}

func (m model) permissionView() string {
	req := m.pending

	style := warnStyle
	if req.Tier == models.TierDestructive {
		style = dangerStyle
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(style.Render(fmt.Sprintf("%s call needs approval: %s", req.Tier.String(), req.Call.Name)))
	b.WriteString("\n")
	if cmd, ok := req.Call.Args["command"].(string); ok && req.Call.Name == models.ToolShellExec {
		b.WriteString(dimStyle.Render("  $ " + cmd))
		b.WriteString("\n")
	}
	for _, signal := range req.Signals {
		b.WriteString(dimStyle.Render("  - " + signal))
		b.WriteString("\n")
	}
	b.WriteString(promptStyle.Render("allow? [y]es / [a]lways this session / [n]o"))
	return b.String()
}
