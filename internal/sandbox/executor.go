// Package sandbox executes approved tool calls under the constraints of
// a Scope: path containment, a hard wall-clock timeout, and bounded
// output capture. It is the only place where model intent becomes side
// effects, and it owns every child process it spawns.
package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/pathutil"
)

// Backend performs one non-shell tool's side effect. Implementations
// must honor context cancellation on any blocking work.
type Backend interface {
	Perform(ctx context.Context, args map[string]any) (string, error)
}

// Executor runs approved execution requests. It must only ever be
// invoked for requests the confirmation gate has approved.
type Executor struct {
	scope    *models.Scope
	resolver *pathutil.Resolver
	runner   ProcessRunner
	backends map[models.ToolName]Backend
	log      *slog.Logger
}

// NewExecutor creates an executor bound to one scope.
func NewExecutor(scope *models.Scope, resolver *pathutil.Resolver, runner ProcessRunner, log *slog.Logger) *Executor {
	return &Executor{
		scope:    scope,
		resolver: resolver,
		runner:   runner,
		backends: make(map[models.ToolName]Backend),
		log:      log,
	}
}

// Register wires a backend for a tool name. Shell execution is built in
// and needs no backend.
func (e *Executor) Register(name models.ToolName, backend Backend) {
	e.backends[name] = backend
}

// Execute runs one approved request to completion and returns its
// terminal result. It never returns an error: every failure mode maps
// to a result status so the agent loop can report it to the model.
func (e *Executor) Execute(ctx context.Context, req models.ExecutionRequest) models.ExecutionResult {
	start := time.Now()

	// Containment precedes all I/O. A file argument pointing outside
	// the sandbox yields Denied before anything is touched.
	if denied := e.checkContainment(req.Call); denied != nil {
		denied.DurationMs = time.Since(start).Milliseconds()
		return *denied
	}

	// The scope itself must be usable; a vanished workspace aborts this
	// call only.
	if _, err := os.Stat(e.scope.WorkspaceRoot); err != nil {
		e.log.Error("sandbox scope unusable", "dir", e.scope.WorkspaceRoot, "error", err)
		return e.failed(req.Call, (&ScopeError{Dir: e.scope.WorkspaceRoot, Cause: err}).Error(), start)
	}

	var result models.ExecutionResult
	if req.Call.Name == models.ToolShellExec {
		result = e.executeShell(ctx, req.Call)
	} else {
		result = e.executeBackend(ctx, req.Call)
	}
	result.DurationMs = time.Since(start).Milliseconds()

	e.log.Info("tool executed",
		"call_id", req.Call.ID,
		"tool", req.Call.Name,
		"tier", req.Tier.String(),
		"status", result.Status,
		"duration_ms", result.DurationMs,
		"truncated", result.Truncated,
	)
	return result
}

// checkContainment fast-fails calls whose file arguments escape the
// sandbox. Returns nil when the call is contained.
func (e *Executor) checkContainment(call models.ToolCall) *models.ExecutionResult {
	for _, key := range pathArgKeys(call.Name) {
		raw, ok := call.Args[key].(string)
		if !ok || raw == "" {
			continue
		}
		if _, err := e.resolver.Abs(raw); err != nil {
			return &models.ExecutionResult{
				CallID: call.ID,
				Name:   call.Name,
				Status: models.StatusDenied,
				Stderr: "path " + raw + " is outside the sandbox",
			}
		}
	}
	return nil
}

func pathArgKeys(name models.ToolName) []string {
	switch name {
	case models.ToolFileEdit:
		return []string{"filename"}
	case models.ToolShellExec:
		return []string{"working_dir"}
	default:
		return nil
	}
}

func (e *Executor) executeShell(ctx context.Context, call models.ToolCall) models.ExecutionResult {
	command, _ := call.Args["command"].(string)

	dir := e.scope.WorkspaceRoot
	if wd, ok := call.Args["working_dir"].(string); ok && wd != "" {
		abs, err := e.resolver.Abs(wd)
		if err == nil {
			dir = abs
		}
	}

	limits := ProcessLimits{
		Timeout:          e.scope.Timeout,
		GracefulShutdown: e.scope.GracefulShutdown,
		MaxOutputBytes:   e.scope.MaxOutputBytes,
		BinarySampleSize: e.scope.BinarySampleSize,
	}

	procResult, err := e.runner.Run(ctx, []string{"/bin/sh", "-c", command}, dir, os.Environ(), limits)
	if procResult == nil {
		procResult = &ProcessResult{ExitCode: -1}
	}

	result := models.ExecutionResult{
		CallID:    call.ID,
		Name:      call.Name,
		Stdout:    procResult.Stdout,
		Stderr:    procResult.Stderr,
		Truncated: procResult.Truncated,
	}
	exitCode := procResult.ExitCode
	result.ExitCode = &exitCode

	switch {
	case err == nil && procResult.ExitCode == 0:
		result.Status = models.StatusOk
	case err == nil:
		result.Status = models.StatusFailed
	case errors.Is(err, ErrTimeout):
		result.Status = models.StatusTimedOut
	case errors.Is(err, context.Canceled):
		result.Status = models.StatusCancelled
	case errors.Is(err, context.DeadlineExceeded):
		result.Status = models.StatusTimedOut
	default:
		result.Status = models.StatusFailed
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
	}
	return result
}

// executeBackend runs a non-shell tool under the same timeout and
// output bounds as a child process. The backend call runs in its own
// goroutine so a misbehaving backend cannot outlive the wall clock.
func (e *Executor) executeBackend(ctx context.Context, call models.ToolCall) models.ExecutionResult {
	backend, ok := e.backends[call.Name]
	if !ok {
		return models.ExecutionResult{
			CallID: call.ID,
			Name:   call.Name,
			Status: models.StatusFailed,
			Stderr: "no backend registered for tool " + string(call.Name),
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.scope.Timeout)
	defer cancel()

	type outcome struct {
		output string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		output, err := backend.Perform(execCtx, call.Args)
		done <- outcome{output: output, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-execCtx.Done():
		status := models.StatusTimedOut
		if ctx.Err() != nil {
			status = models.StatusCancelled
		}
		return models.ExecutionResult{
			CallID: call.ID,
			Name:   call.Name,
			Status: status,
			Stderr: execCtx.Err().Error(),
		}
	}

	result := models.ExecutionResult{
		CallID: call.ID,
		Name:   call.Name,
	}
	result.Stdout, result.Truncated = truncateString(out.output, e.scope.MaxOutputBytes)

	switch {
	case out.err == nil:
		result.Status = models.StatusOk
	case errors.Is(out.err, context.Canceled):
		result.Status = models.StatusCancelled
		result.Stderr = out.err.Error()
	case errors.Is(out.err, context.DeadlineExceeded):
		result.Status = models.StatusTimedOut
		result.Stderr = out.err.Error()
	default:
		result.Status = models.StatusFailed
		result.Stderr = out.err.Error()
	}
	return result
}

func (e *Executor) failed(call models.ToolCall, msg string, start time.Time) models.ExecutionResult {
	return models.ExecutionResult{
		CallID:     call.ID,
		Name:       call.Name,
		Status:     models.StatusFailed,
		Stderr:     msg,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
