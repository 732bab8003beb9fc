// Package store persists the session audit trail in SQLite. Every
// approval decision and every tool execution outcome is recorded so a
// session can be reconstructed after the fact.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/gate"
)

const schema = `
CREATE TABLE IF NOT EXISTS approvals (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	call_id    TEXT NOT NULL,
	tool       TEXT NOT NULL,
	tier       TEXT NOT NULL,
	decision   TEXT NOT NULL,
	summary    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS executions (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	call_id     TEXT NOT NULL,
	tool        TEXT NOT NULL,
	status      TEXT NOT NULL,
	exit_code   INTEGER,
	duration_ms INTEGER NOT NULL,
	truncated   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_approvals_call ON approvals(call_id);
CREATE INDEX IF NOT EXISTS idx_executions_call ON executions(call_id);
`

// AuditStore records approvals and execution outcomes.
type AuditStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at dbPath.
func Open(dbPath string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening audit store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating audit store: %w", err)
	}
	return &AuditStore{db: db}, nil
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// RecordApproval persists one approval decision. Argument values are
// reduced to a short summary; raw arguments and credentials are never
// stored.
func (s *AuditStore) RecordApproval(ctx context.Context, call models.ToolCall, tier models.RiskTier, decision gate.Decision) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO approvals (id, created_at, call_id, tool, tier, decision, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		time.Now().UTC().Format(time.RFC3339),
		call.ID,
		string(call.Name),
		tier.String(),
		string(decision),
		callSummary(call),
	)
	if err != nil {
		return fmt.Errorf("recording approval: %w", err)
	}
	return nil
}

// RecordResult persists one execution outcome.
func (s *AuditStore) RecordResult(ctx context.Context, result models.ExecutionResult) error {
	var exitCode any
	if result.ExitCode != nil {
		exitCode = *result.ExitCode
	}
	truncated := 0
	if result.Truncated {
		truncated = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO executions (id, created_at, call_id, tool, status, exit_code, duration_ms, truncated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		time.Now().UTC().Format(time.RFC3339),
		result.CallID,
		string(result.Name),
		string(result.Status),
		exitCode,
		result.DurationMs,
		truncated,
	)
	if err != nil {
		return fmt.Errorf("recording result: %w", err)
	}
	return nil
}

// ApprovalCount returns how many approval rows exist, mainly for tests
// and session summaries.
func (s *AuditStore) ApprovalCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM approvals`).Scan(&n)
	return n, err
}

const summaryLen = 200

// callSummary renders the few argument fields worth auditing.
func callSummary(call models.ToolCall) string {
	var v string
	switch call.Name {
	case models.ToolShellExec:
		v, _ = call.Args["command"].(string)
	case models.ToolFileEdit:
		cmd, _ := call.Args["command"].(string)
		file, _ := call.Args["filename"].(string)
		v = cmd + " " + file
	case models.ToolScrape:
		v, _ = call.Args["url"].(string)
	case models.ToolSearch:
		v, _ = call.Args["query"].(string)
	case models.ToolSendEmail:
		v, _ = call.Args["subject"].(string)
	default:
		v = string(call.Name)
	}
	if len(v) > summaryLen {
		v = v[:summaryLen]
	}
	return v
}
