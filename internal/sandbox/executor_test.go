package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/logging"
	"github.com/voidlock/tether/internal/pathutil"
)

type fakeRunner struct {
	result  *ProcessResult
	err     error
	lastCmd []string
	lastDir string
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context, command []string, dir string, env []string, limits ProcessLimits) (*ProcessResult, error) {
	f.calls++
	f.lastCmd = command
	f.lastDir = dir
	return f.result, f.err
}

type fakeBackend struct {
	output string
	err    error
	block  bool
	calls  int
}

func (f *fakeBackend) Perform(ctx context.Context, args map[string]any) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.output, f.err
}

func newTestExecutor(t *testing.T, runner ProcessRunner) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	resolver := pathutil.NewResolver(root, nil)
	scope := &models.Scope{
		WorkspaceRoot:    root,
		Timeout:          2 * time.Second,
		MaxOutputBytes:   1024,
		GracefulShutdown: 10 * time.Millisecond,
		BinarySampleSize: 512,
	}
	return NewExecutor(scope, resolver, runner, logging.Discard()), root
}

func shellRequest(command string) models.ExecutionRequest {
	return models.ExecutionRequest{
		Call: models.ToolCall{
			ID:   "call-1",
			Name: models.ToolShellExec,
			Args: map[string]any{"command": command},
		},
		Tier: models.TierSafe,
	}
}

func TestExecuteShellSuccess(t *testing.T) {
	runner := &fakeRunner{result: &ProcessResult{Stdout: "hello\n", ExitCode: 0}}
	e, root := newTestExecutor(t, runner)

	result := e.Execute(context.Background(), shellRequest("echo hello"))

	assert.Equal(t, models.StatusOk, result.Status)
	assert.Equal(t, "hello\n", result.Stdout)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
	assert.Equal(t, []string{"/bin/sh", "-c", "echo hello"}, runner.lastCmd)
	assert.Equal(t, root, runner.lastDir)
}

func TestExecuteShellNonZeroExit(t *testing.T) {
	runner := &fakeRunner{result: &ProcessResult{Stderr: "boom", ExitCode: 3}}
	e, _ := newTestExecutor(t, runner)

	result := e.Execute(context.Background(), shellRequest("false"))

	assert.Equal(t, models.StatusFailed, result.Status)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 3, *result.ExitCode)
	assert.Equal(t, "boom", result.Stderr)
}

func TestExecuteShellTimeout(t *testing.T) {
	runner := &fakeRunner{result: &ProcessResult{ExitCode: -1}, err: ErrTimeout}
	e, _ := newTestExecutor(t, runner)

	result := e.Execute(context.Background(), shellRequest("sleep 100"))
	assert.Equal(t, models.StatusTimedOut, result.Status)
}

func TestExecuteShellCancelled(t *testing.T) {
	runner := &fakeRunner{result: &ProcessResult{ExitCode: -1}, err: context.Canceled}
	e, _ := newTestExecutor(t, runner)

	result := e.Execute(context.Background(), shellRequest("sleep 100"))
	assert.Equal(t, models.StatusCancelled, result.Status)
}

func TestExecuteDeniesEscapingWorkingDir(t *testing.T) {
	runner := &fakeRunner{result: &ProcessResult{ExitCode: 0}}
	e, _ := newTestExecutor(t, runner)

	req := models.ExecutionRequest{
		Call: models.ToolCall{
			ID:   "call-1",
			Name: models.ToolShellExec,
			Args: map[string]any{"command": "ls", "working_dir": "/etc"},
		},
	}
	result := e.Execute(context.Background(), req)

	assert.Equal(t, models.StatusDenied, result.Status)
	assert.Zero(t, runner.calls, "denied calls must not reach the runner")
}

func TestExecuteDeniesFileEditOutsideSandbox(t *testing.T) {
	e, _ := newTestExecutor(t, &fakeRunner{})
	backend := &fakeBackend{output: "done"}
	e.Register(models.ToolFileEdit, backend)

	req := models.ExecutionRequest{
		Call: models.ToolCall{
			Name: models.ToolFileEdit,
			Args: map[string]any{"command": "write", "filename": "../../etc/passwd"},
		},
	}
	result := e.Execute(context.Background(), req)

	assert.Equal(t, models.StatusDenied, result.Status)
	assert.Zero(t, backend.calls)
}

func TestExecuteBackendSuccess(t *testing.T) {
	e, _ := newTestExecutor(t, &fakeRunner{})
	e.Register(models.ToolScrape, &fakeBackend{output: "page text"})

	req := models.ExecutionRequest{
		Call: models.ToolCall{
			ID:   "call-9",
			Name: models.ToolScrape,
			Args: map[string]any{"url": "https://example.com"},
		},
	}
	result := e.Execute(context.Background(), req)

	assert.Equal(t, models.StatusOk, result.Status)
	assert.Equal(t, "page text", result.Stdout)
	assert.Equal(t, "call-9", result.CallID)
}

func TestExecuteBackendFailure(t *testing.T) {
	e, _ := newTestExecutor(t, &fakeRunner{})
	e.Register(models.ToolScrape, &fakeBackend{err: errors.New("fetch failed")})

	req := models.ExecutionRequest{
		Call: models.ToolCall{Name: models.ToolScrape, Args: map[string]any{}},
	}
	result := e.Execute(context.Background(), req)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Stderr, "fetch failed")
}

func TestExecuteBackendTruncatesOutput(t *testing.T) {
	e, _ := newTestExecutor(t, &fakeRunner{})
	big := make([]byte, 4096)
	for i := range big {
		big[i] = 'a'
	}
	e.Register(models.ToolScrape, &fakeBackend{output: string(big)})

	req := models.ExecutionRequest{
		Call: models.ToolCall{Name: models.ToolScrape, Args: map[string]any{}},
	}
	result := e.Execute(context.Background(), req)

	assert.Equal(t, models.StatusOk, result.Status)
	assert.True(t, result.Truncated)
	assert.Len(t, result.Stdout, 1024)
}

func TestExecuteBackendCancellation(t *testing.T) {
	e, _ := newTestExecutor(t, &fakeRunner{})
	e.Register(models.ToolScrape, &fakeBackend{block: true})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	req := models.ExecutionRequest{
		Call: models.ToolCall{Name: models.ToolScrape, Args: map[string]any{}},
	}
	result := e.Execute(ctx, req)

	assert.Equal(t, models.StatusCancelled, result.Status)
}

func TestExecuteUnregisteredBackend(t *testing.T) {
	e, _ := newTestExecutor(t, &fakeRunner{})

	req := models.ExecutionRequest{
		Call: models.ToolCall{Name: models.ToolScrape, Args: map[string]any{}},
	}
	result := e.Execute(context.Background(), req)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Stderr, "no backend registered")
}
