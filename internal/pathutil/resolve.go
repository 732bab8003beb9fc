// Package pathutil provides path resolution within the sandbox boundary.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver canonicalises paths against a workspace root and checks the
// sandbox boundary.
type Resolver struct {
	workspaceRoot   string
	allowedPrefixes []string
}

// NewResolver creates a resolver for the given canonical root and extra
// allowed prefixes. The root itself is always allowed.
func NewResolver(workspaceRoot string, allowedPrefixes []string) *Resolver {
	prefixes := make([]string, 0, len(allowedPrefixes)+1)
	prefixes = append(prefixes, workspaceRoot)
	for _, p := range allowedPrefixes {
		if p != "" && p != workspaceRoot {
			prefixes = append(prefixes, filepath.Clean(p))
		}
	}
	return &Resolver{
		workspaceRoot:   workspaceRoot,
		allowedPrefixes: prefixes,
	}
}

// CanonicaliseRoot canonicalises a workspace root path by making it
// absolute and resolving symlinks. Returns an error if the path doesn't
// exist or isn't a directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &WorkspaceRootError{Root: root, Cause: err}
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &WorkspaceRootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &WorkspaceRootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &NotADirectoryError{Path: resolved}
	}
	return resolved, nil
}

// WorkspaceRoot returns the canonical root.
func (r *Resolver) WorkspaceRoot() string {
	return r.workspaceRoot
}

// AllowedPrefixes returns the canonical allowed prefixes, root first.
func (r *Resolver) AllowedPrefixes() []string {
	return r.allowedPrefixes
}

// Abs resolves any path to absolute and validates it is within the
// sandbox boundary. Relative paths are joined to the workspace root.
// The check happens before any I/O: it is a lexical containment check
// on the cleaned path, so `..` escapes are caught even for paths that
// do not exist yet.
func (r *Resolver) Abs(path string) (string, error) {
	if r.workspaceRoot == "" {
		return "", ErrWorkspaceRootNotSet
	}

	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(r.workspaceRoot, path))
	}

	for _, prefix := range r.allowedPrefixes {
		if abs == prefix || strings.HasPrefix(abs, prefix+"/") {
			return abs, nil
		}
	}
	return "", ErrOutsideSandbox
}
