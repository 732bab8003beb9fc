package models

import (
	"strconv"
	"strings"
	"time"
)

// Message represents a single message in the conversation history
type Message struct {
	Role    string // "user", "assistant", "system", "model", "function"
	Content string

	// For model messages with tool calls
	ToolCalls []ToolCall

	// For function messages with tool results
	ToolResults []ExecutionResult
}

// ContentLen returns the byte length counted against the history budget.
func (m Message) ContentLen() int {
	n := len(m.Content)
	for _, r := range m.ToolResults {
		n += len(r.Stdout) + len(r.Stderr)
	}
	return n
}

// ToolName identifies one of the known tools. The set is closed:
// dispatch over it is exhaustive and adding a tool is a compile-time
// change here plus a registry entry.
type ToolName string

const (
	ToolShellExec  ToolName = "execute_command"
	ToolFileEdit   ToolName = "file_editor"
	ToolSearch     ToolName = "search_online"
	ToolScrape     ToolName = "scrape_url"
	ToolStockQuote ToolName = "alpha_vantage_query"
	ToolSendEmail  ToolName = "send_email"
)

// ToolCall represents a structured tool invocation from the model.
// Immutable once created: produced by the model-facing layer, consumed
// exactly once by the dispatch registry.
type ToolCall struct {
	ID   string
	Name ToolName
	Args map[string]any
}

// RiskTier classifies an action's potential for unwanted effect.
// The order is total: Destructive > Ambiguous > Safe. When a call has
// multiple risk signals the highest tier wins.
type RiskTier int

const (
	TierSafe RiskTier = iota
	TierAmbiguous
	TierDestructive
)

func (t RiskTier) String() string {
	switch t {
	case TierSafe:
		return "safe"
	case TierAmbiguous:
		return "ambiguous"
	case TierDestructive:
		return "destructive"
	default:
		return "unknown"
	}
}

// RequiresApproval reports whether the tier needs an explicit human
// decision before execution.
func (t RiskTier) RequiresApproval() bool {
	return t >= TierAmbiguous
}

// MaxTier returns the highest of the given tiers. Classification must
// never under-estimate risk, so aggregation always resolves upward.
func MaxTier(tiers ...RiskTier) RiskTier {
	max := TierSafe
	for _, t := range tiers {
		if t > max {
			max = t
		}
	}
	return max
}

// Scope is the set of constraints under which one execution runs.
// Derived from configuration at startup; read-only for the lifetime of
// an execution.
type Scope struct {
	// WorkspaceRoot is the canonical absolute sandbox root.
	WorkspaceRoot string

	// AllowedPrefixes are canonical absolute directories tools may
	// touch. Always includes WorkspaceRoot.
	AllowedPrefixes []string

	// Timeout is the hard wall-clock limit per execution.
	Timeout time.Duration

	// MaxOutputBytes caps captured output per stream.
	MaxOutputBytes int64

	// GracefulShutdown is the interrupt-to-kill grace period.
	GracefulShutdown time.Duration

	// BinarySampleSize is how many leading output bytes are checked for
	// binary content.
	BinarySampleSize int
}

// ExecutionRequest pairs a validated call with its risk tier and the
// scope it will run under. Created by the classifier, consumed by the
// confirmation gate and then the executor.
type ExecutionRequest struct {
	Call  ToolCall
	Tier  RiskTier
	Scope *Scope

	// Signals are the human-readable reasons behind the tier, surfaced
	// in the confirmation prompt.
	Signals []string
}

// Status is the terminal disposition of one tool call.
type Status string

const (
	StatusOk        Status = "ok"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	StatusCancelled Status = "cancelled"
	StatusDenied    Status = "denied"
)

// ExecutionResult is the terminal record of one tool call. Never
// mutated after creation.
type ExecutionResult struct {
	CallID     string
	Name       ToolName
	Status     Status
	Stdout     string
	Stderr     string
	ExitCode   *int
	Truncated  bool
	DurationMs int64
}

// ToModelText renders the result as the structured text fed back to the
// model.
func (r ExecutionResult) ToModelText() string {
	var b strings.Builder
	b.WriteString("status: ")
	b.WriteString(string(r.Status))
	if r.ExitCode != nil {
		b.WriteString("\nexit_code: ")
		b.WriteString(strconv.Itoa(*r.ExitCode))
	}
	if r.Stdout != "" {
		b.WriteString("\n")
		b.WriteString(r.Stdout)
	}
	if r.Stderr != "" {
		b.WriteString("\nstderr: ")
		b.WriteString(r.Stderr)
	}
	if r.Truncated {
		b.WriteString("\n[output truncated]")
	}
	return b.String()
}
