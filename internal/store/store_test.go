package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/gate"
)

func openTestStore(t *testing.T) *AuditStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordApproval(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	call := models.ToolCall{
		ID:   "call-1",
		Name: models.ToolShellExec,
		Args: map[string]any{"command": "rm -rf build"},
	}
	require.NoError(t, s.RecordApproval(ctx, call, models.TierDestructive, gate.DecisionDenied))
	require.NoError(t, s.RecordApproval(ctx, call, models.TierDestructive, gate.DecisionApproved))

	n, err := s.ApprovalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordResult(t *testing.T) {
	s := openTestStore(t)
	exitCode := 1

	err := s.RecordResult(context.Background(), models.ExecutionResult{
		CallID:     "call-2",
		Name:       models.ToolShellExec,
		Status:     models.StatusFailed,
		ExitCode:   &exitCode,
		DurationMs: 42,
		Truncated:  true,
	})
	require.NoError(t, err)

	// Nil exit code rows insert cleanly too.
	err = s.RecordResult(context.Background(), models.ExecutionResult{
		CallID: "call-3",
		Name:   models.ToolScrape,
		Status: models.StatusOk,
	})
	require.NoError(t, err)
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.RecordApproval(context.Background(),
		models.ToolCall{ID: "c", Name: models.ToolSendEmail, Args: map[string]any{"subject": "hi"}},
		models.TierAmbiguous, gate.DecisionApproved))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.ApprovalCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCallSummaryTruncatesAndSelectsFields(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	summary := callSummary(models.ToolCall{
		Name: models.ToolShellExec,
		Args: map[string]any{"command": string(long)},
	})
	assert.Len(t, summary, summaryLen)

	summary = callSummary(models.ToolCall{
		Name: models.ToolFileEdit,
		Args: map[string]any{"command": "write", "filename": "a.txt"},
	})
	assert.Equal(t, "write a.txt", summary)
}
