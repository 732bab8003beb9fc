// Package agent drives the conversation loop: user input goes to the
// model, model tool calls are classified, gated, and executed, and the
// results flow back until the model answers in plain text.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/dispatch"
	"github.com/voidlock/tether/internal/gate"
	"github.com/voidlock/tether/internal/interrupt"
	"github.com/voidlock/tether/internal/policy"
	"github.com/voidlock/tether/internal/provider"
	"github.com/voidlock/tether/internal/sandbox"
)

// UserInterface is what the loop needs from the terminal front end.
type UserInterface interface {
	// ReadInput blocks for the next user input line.
	ReadInput(ctx context.Context) (string, error)
	// WriteMessage shows a completed model response.
	WriteMessage(msg string)
	// WriteStatus shows a transient status line.
	WriteStatus(status string)
}

// ResultRecorder persists execution outcomes.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result models.ExecutionResult) error
}

// Loop owns one interactive session.
type Loop struct {
	provider   provider.Provider
	registry   *dispatch.Registry
	classifier *policy.Classifier
	gate       *gate.Gate
	executor   *sandbox.Executor
	interrupts *interrupt.Controller
	ui         UserInterface
	history    *History
	audit      ResultRecorder
	log        *slog.Logger

	scope     *models.Scope
	maxTurns  int
	denyTools map[models.ToolName]bool
	sysInstr  string
}

// Deps carries everything a Loop needs.
type Deps struct {
	Provider   provider.Provider
	Registry   *dispatch.Registry
	Classifier *policy.Classifier
	Gate       *gate.Gate
	Executor   *sandbox.Executor
	Interrupts *interrupt.Controller
	UI         UserInterface
	History    *History
	Audit      ResultRecorder
	Log        *slog.Logger

	Scope     *models.Scope
	MaxTurns  int
	DenyTools []string
}

// NewLoop wires up a session loop.
func NewLoop(deps Deps) *Loop {
	deny := make(map[models.ToolName]bool, len(deps.DenyTools))
	for _, name := range deps.DenyTools {
		deny[models.ToolName(name)] = true
	}
	maxTurns := deps.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &Loop{
		provider:   deps.Provider,
		registry:   deps.Registry,
		classifier: deps.Classifier,
		gate:       deps.Gate,
		executor:   deps.Executor,
		interrupts: deps.Interrupts,
		ui:         deps.UI,
		history:    deps.History,
		audit:      deps.Audit,
		log:        deps.Log,
		scope:      deps.Scope,
		maxTurns:   maxTurns,
		denyTools:  deny,
		sysInstr:   systemInstruction(deps.Scope.WorkspaceRoot),
	}
}

// Run is the interactive REPL. It returns when the user exits or input
// is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.interrupts.Reset()

		input, err := l.ui.ReadInput(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return nil
		case input == "clear":
			l.history.Clear()
			l.gate.Reset()
			l.ui.WriteStatus("history cleared")
			continue
		case strings.HasPrefix(input, "!"):
			l.passthrough(l.interrupts.Context(), strings.TrimPrefix(input, "!"))
			continue
		}

		if err := l.RunTurn(l.interrupts.Context(), input); err != nil {
			if errors.Is(err, context.Canceled) {
				l.ui.WriteStatus("interrupted")
				continue
			}
			l.ui.WriteStatus(fmt.Sprintf("error: %v", err))
		}
	}
}

// RunOnce handles a single prompt non-interactively.
func (l *Loop) RunOnce(ctx context.Context, prompt string) error {
	l.interrupts.Reset()
	return l.RunTurn(l.interrupts.Context(), prompt)
}

// RunTurn processes one user input to completion: as many
// model/tool round trips as it takes, bounded by maxTurns.
func (l *Loop) RunTurn(ctx context.Context, input string) error {
	l.history.Append(models.Message{Role: "user", Content: input})

	for turn := 0; turn < l.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.ui.WriteStatus("thinking...")
		resp, err := l.provider.Generate(ctx, &provider.GenerateRequest{
			History:           l.history.Messages(),
			SystemInstruction: l.sysInstr,
			Tools:             l.registry.Definitions(),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch resp.Content.Type {
		case provider.ResponseTypeText:
			l.history.Append(models.Message{Role: "model", Content: resp.Content.Text})
			l.ui.WriteMessage(resp.Content.Text)
			return nil

		case provider.ResponseTypeRefusal:
			l.ui.WriteMessage("The model declined to respond: " + resp.Content.RefusalReason)
			return nil

		case provider.ResponseTypeToolCall:
			results, calls := l.handleToolCalls(ctx, resp.Content.ToolCalls)
			l.history.Append(models.Message{Role: "model", ToolCalls: calls})
			l.history.Append(models.Message{Role: "user", ToolResults: results})
			if ctx.Err() != nil {
				return ctx.Err()
			}

		default:
			return fmt.Errorf("unexpected response type %q", resp.Content.Type)
		}
	}

	l.ui.WriteStatus("stopping: turn limit reached")
	return nil
}

// handleToolCalls runs each proposed call through dispatch,
// classification, the gate, and the executor. Results come back in
// request order. After a cancellation, remaining calls are marked
// cancelled without executing.
func (l *Loop) handleToolCalls(ctx context.Context, raws []provider.RawToolCall) ([]models.ExecutionResult, []models.ToolCall) {
	results := make([]models.ExecutionResult, 0, len(raws))
	calls := make([]models.ToolCall, 0, len(raws))

	for _, raw := range raws {
		call, err := l.registry.Dispatch(raw)
		if err != nil {
			l.log.Warn("rejected tool call", "tool", raw.Name, "error", err)
			result := invalidCallResult(raw, err)
			// Echo the rejected call so responses still pair up with
			// calls in the exchange the model sees.
			calls = append(calls, models.ToolCall{
				ID:   result.CallID,
				Name: models.ToolName(raw.Name),
				Args: raw.Args,
			})
			results = append(results, result)
			continue
		}
		calls = append(calls, call)
		results = append(results, l.runCall(ctx, call))
	}
	return results, calls
}

func (l *Loop) runCall(ctx context.Context, call models.ToolCall) models.ExecutionResult {
	if ctx.Err() != nil {
		return statusResult(call, models.StatusCancelled, "cancelled before execution")
	}

	if l.denyTools[call.Name] {
		return statusResult(call, models.StatusDenied, "tool is disabled by policy")
	}

	req := l.classifier.Request(call, l.scope)
	if len(req.Signals) > 0 {
		l.log.Info("classified call",
			"tool", call.Name,
			"tier", req.Tier.String(),
			"signals", strings.Join(req.Signals, "; "))
	}

	decision, err := l.gate.AwaitApproval(ctx, req)
	if err != nil {
		return statusResult(call, models.StatusFailed, fmt.Sprintf("approval failed: %v", err))
	}
	switch decision {
	case gate.DecisionDenied:
		return statusResult(call, models.StatusDenied, "denied by user")
	case gate.DecisionCancelled:
		return statusResult(call, models.StatusCancelled, "cancelled")
	}

	l.ui.WriteStatus(fmt.Sprintf("running %s...", call.Name))
	result := l.executor.Execute(ctx, req)
	l.recordResult(ctx, result)
	return result
}

// passthrough runs a user-typed shell command without a model round
// trip. The command still goes through classification and the gate, so
// a destructive command typed directly is confirmed like any other.
func (l *Loop) passthrough(ctx context.Context, command string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}
	call := models.ToolCall{
		ID:   uuid.NewString(),
		Name: models.ToolShellExec,
		Args: map[string]any{"command": command},
	}
	result := l.runCall(ctx, call)

	out := result.Stdout
	if result.Stderr != "" {
		if out != "" {
			out += "\n"
		}
		out += result.Stderr
	}
	if out == "" {
		out = "(no output)"
	}
	l.ui.WriteMessage(out)
}

func (l *Loop) recordResult(ctx context.Context, result models.ExecutionResult) {
	if l.audit == nil {
		return
	}
	// Audit writes should survive a cancelled turn.
	if err := l.audit.RecordResult(context.WithoutCancel(ctx), result); err != nil {
		l.log.Warn("failed to record result", "error", err)
	}
}

func statusResult(call models.ToolCall, status models.Status, detail string) models.ExecutionResult {
	return models.ExecutionResult{
		CallID: call.ID,
		Name:   call.Name,
		Status: status,
		Stderr: detail,
	}
}

func invalidCallResult(raw provider.RawToolCall, err error) models.ExecutionResult {
	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}
	return models.ExecutionResult{
		CallID: id,
		Name:   models.ToolName(raw.Name),
		Status: models.StatusFailed,
		Stderr: err.Error(),
	}
}
