package sandbox

import (
	"time"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/config"
	"github.com/voidlock/tether/internal/pathutil"
)

// ScopeFromConfig derives the read-only execution scope from startup
// configuration and the canonical workspace root. Called once; the
// result is shared across all calls for the lifetime of the process.
func ScopeFromConfig(cfg config.SandboxConfig, resolver *pathutil.Resolver) *models.Scope {
	return &models.Scope{
		WorkspaceRoot:    resolver.WorkspaceRoot(),
		AllowedPrefixes:  resolver.AllowedPrefixes(),
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxOutputBytes:   cfg.MaxOutputBytes,
		GracefulShutdown: time.Duration(cfg.GracefulShutdownMs) * time.Millisecond,
		BinarySampleSize: cfg.BinaryDetectionSampleSize,
	}
}
