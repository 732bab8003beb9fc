package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsContainsRelativePaths(t *testing.T) {
	r := NewResolver("/workspace", nil)

	abs, err := r.Abs("src/main.go")
	require.NoError(t, err)
	assert.Equal(t, "/workspace/src/main.go", abs)
}

func TestAbsAllowsRootItself(t *testing.T) {
	r := NewResolver("/workspace", nil)

	abs, err := r.Abs(".")
	require.NoError(t, err)
	assert.Equal(t, "/workspace", abs)
}

func TestAbsRejectsDotDotEscape(t *testing.T) {
	r := NewResolver("/workspace", nil)

	_, err := r.Abs("../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideSandbox)

	_, err = r.Abs("src/../../other")
	assert.ErrorIs(t, err, ErrOutsideSandbox)
}

func TestAbsRejectsAbsoluteOutside(t *testing.T) {
	r := NewResolver("/workspace", nil)

	_, err := r.Abs("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideSandbox)
}

func TestAbsRejectsSiblingWithSharedPrefix(t *testing.T) {
	r := NewResolver("/workspace", nil)

	// "/workspace-evil" shares a string prefix but is a different tree.
	_, err := r.Abs("/workspace-evil/file")
	assert.ErrorIs(t, err, ErrOutsideSandbox)
}

func TestAbsHonorsAllowedPrefixes(t *testing.T) {
	r := NewResolver("/workspace", []string{"/shared/data"})

	abs, err := r.Abs("/shared/data/input.csv")
	require.NoError(t, err)
	assert.Equal(t, "/shared/data/input.csv", abs)

	_, err = r.Abs("/shared/other")
	assert.ErrorIs(t, err, ErrOutsideSandbox)
}

func TestAbsRequiresRoot(t *testing.T) {
	r := &Resolver{}
	_, err := r.Abs("anything")
	assert.ErrorIs(t, err, ErrWorkspaceRootNotSet)
}

func TestCanonicaliseRoot(t *testing.T) {
	dir := t.TempDir()

	resolved, err := CanonicaliseRoot(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved))

	_, err = CanonicaliseRoot(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCanonicaliseRootRejectsFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := CanonicaliseRoot(file)
	require.Error(t, err)

	var notDir *NotADirectoryError
	assert.ErrorAs(t, err, &notDir)
}
