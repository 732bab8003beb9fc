package gate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/voidlock/tether/internal/agent/models"
)

// Answer is what the user chose when prompted about a risky call.
type Answer string

const (
	AnswerAllow        Answer = "allow"
	AnswerAllowSession Answer = "allow_always"
	AnswerDeny         Answer = "deny"
)

// Decision is the gate's verdict on a single execution request.
type Decision string

const (
	DecisionApproved  Decision = "approved"
	DecisionDenied    Decision = "denied"
	DecisionCancelled Decision = "cancelled"
)

// Prompter asks the user to approve or deny a pending call. It blocks
// until the user answers or the context is cancelled.
type Prompter interface {
	ReadPermission(ctx context.Context, req models.ExecutionRequest) (Answer, error)
}

// AuditRecorder persists approval decisions.
type AuditRecorder interface {
	RecordApproval(ctx context.Context, call models.ToolCall, tier models.RiskTier, decision Decision) error
}

// Gate sits between classification and execution. Safe calls pass
// straight through; everything else waits for the user. Session
// allowances let a user approve a command shape once per session.
type Gate struct {
	prompter Prompter
	audit    AuditRecorder
	log      *slog.Logger

	autoApproveAmbiguous bool

	mu             sync.Mutex
	sessionAllowed map[string]bool
}

// Option configures a Gate.
type Option func(*Gate)

// WithAutoApproveAmbiguous makes the gate approve ambiguous-tier calls
// without prompting. Destructive calls always prompt.
func WithAutoApproveAmbiguous(enabled bool) Option {
	return func(g *Gate) { g.autoApproveAmbiguous = enabled }
}

// WithAuditRecorder attaches a recorder for approval decisions.
func WithAuditRecorder(audit AuditRecorder) Option {
	return func(g *Gate) { g.audit = audit }
}

// NewGate creates a confirmation gate.
func NewGate(prompter Prompter, log *slog.Logger, opts ...Option) *Gate {
	g := &Gate{
		prompter:       prompter,
		log:            log,
		sessionAllowed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AwaitApproval resolves a single execution request to a decision.
// Cancellation wins over any concurrent user answer.
func (g *Gate) AwaitApproval(ctx context.Context, req models.ExecutionRequest) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return DecisionCancelled, nil
	}

	if !req.Tier.RequiresApproval() {
		return DecisionApproved, nil
	}

	key := sessionKey(req)
	g.mu.Lock()
	allowed := g.sessionAllowed[key]
	g.mu.Unlock()
	if allowed {
		g.record(ctx, req, DecisionApproved)
		return DecisionApproved, nil
	}

	if req.Tier == models.TierAmbiguous && g.autoApproveAmbiguous {
		g.record(ctx, req, DecisionApproved)
		return DecisionApproved, nil
	}

	answer, err := g.prompter.ReadPermission(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return DecisionCancelled, nil
		}
		return DecisionDenied, err
	}
	if ctx.Err() != nil {
		return DecisionCancelled, nil
	}

	var decision Decision
	switch answer {
	case AnswerAllow:
		decision = DecisionApproved
	case AnswerAllowSession:
		decision = DecisionApproved
		g.mu.Lock()
		g.sessionAllowed[key] = true
		g.mu.Unlock()
	default:
		decision = DecisionDenied
	}

	g.record(ctx, req, decision)
	g.log.Info("approval decision",
		"tool", req.Call.Name,
		"tier", req.Tier.String(),
		"decision", string(decision))
	return decision, nil
}

// Reset clears all session allowances.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionAllowed = make(map[string]bool)
}

func (g *Gate) record(ctx context.Context, req models.ExecutionRequest, decision Decision) {
	if g.audit == nil {
		return
	}
	if err := g.audit.RecordApproval(ctx, req.Call, req.Tier, decision); err != nil {
		g.log.Warn("failed to record approval", "error", err)
	}
}

// sessionKey identifies the shape of a call for session allowances.
// Shell commands key on their leading binary so "allow always" on one
// git invocation covers later git invocations, not all shell commands.
// The tier is part of the key: an allowance granted for an ambiguous
// call never covers a destructive call with the same leading binary.
func sessionKey(req models.ExecutionRequest) string {
	return req.Tier.String() + "|" + callKey(req.Call)
}

func callKey(call models.ToolCall) string {
	if call.Name != models.ToolShellExec {
		return string(call.Name)
	}
	command, _ := call.Args["command"].(string)
	for _, field := range strings.Fields(command) {
		if strings.Contains(field, "=") && !strings.HasPrefix(field, "=") {
			continue
		}
		return string(call.Name) + ":" + field
	}
	return string(call.Name)
}
