package interrupt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerCancelsCurrentContext(t *testing.T) {
	c := NewController(0)
	ctx := c.Context()

	require.NoError(t, ctx.Err())
	c.Trigger()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
	assert.True(t, c.Pending())
}

func TestResetConsumesPendingInterrupt(t *testing.T) {
	c := NewController(0)
	c.Trigger()

	assert.True(t, c.Reset(), "first reset consumes the interrupt")
	assert.False(t, c.Pending())
	assert.False(t, c.Reset(), "second reset finds nothing pending")
}

func TestResetIssuesFreshContext(t *testing.T) {
	c := NewController(0)
	old := c.Context()
	c.Trigger()
	c.Reset()

	fresh := c.Context()
	assert.NotEqual(t, old, fresh)
	assert.NoError(t, fresh.Err())
	assert.Error(t, old.Err())
}

func TestSecondTriggerExitsHard(t *testing.T) {
	exitCode := -1
	c := NewController(0, WithExitFunc(func(code int) { exitCode = code }))

	hookRan := false
	c.OnHardStop(func() { hookRan = true })

	c.Trigger()
	assert.Equal(t, -1, exitCode, "first interrupt must not exit")

	c.Trigger()
	assert.Equal(t, 130, exitCode)
	assert.True(t, hookRan, "release hooks run before a hard exit")
}

func TestTriggerAfterResetIsSoftAgain(t *testing.T) {
	exitCode := -1
	c := NewController(0, WithExitFunc(func(code int) { exitCode = code }))

	c.Trigger()
	c.Reset()
	c.Trigger()

	assert.Equal(t, -1, exitCode, "interrupt after reset starts a new cycle")
	assert.True(t, c.Pending())
}
