// Package interrupt owns the single process-wide cancellation token.
// Every blocking step (model wait, confirmation wait, child process
// wait) derives its context from here and unwinds when the token fires.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// State of the controller. Idle means no interrupt is pending; Signaled
// means an interrupt was received and not yet consumed.
type State int

const (
	StateIdle State = iota
	StateSignaled
)

// Controller converts user interrupts into context cancellation. The
// first interrupt of a cycle cancels the current context and moves to
// Signaled; a second interrupt while still Signaled runs the release
// hooks and exits the process after a short grace period.
type Controller struct {
	mu       sync.Mutex
	state    State
	ctx      context.Context
	cancel   context.CancelFunc
	hooks    []func()
	grace    time.Duration
	exit     func(code int)
	sigCh    chan os.Signal
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithExitFunc replaces os.Exit, for tests.
func WithExitFunc(exit func(code int)) Option {
	return func(c *Controller) { c.exit = exit }
}

// NewController creates a controller with the given hard-stop grace
// period. Call Start to begin observing SIGINT.
func NewController(grace time.Duration, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		state:  StateIdle,
		ctx:    ctx,
		cancel: cancel,
		grace:  grace,
		exit:   os.Exit,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start registers the SIGINT handler. The handler itself only calls
// Trigger; all state transitions happen under the controller's lock,
// never inside the signal goroutine's critical path beyond that.
func (c *Controller) Start() {
	c.sigCh = make(chan os.Signal, 2)
	signal.Notify(c.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			select {
			case <-c.done:
				return
			case _, ok := <-c.sigCh:
				if !ok {
					return
				}
				c.Trigger()
			}
		}
	}()
}

// Stop unregisters the signal handler.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		if c.sigCh != nil {
			signal.Stop(c.sigCh)
		}
		close(c.done)
	})
}

// Trigger delivers one interrupt. Safe to call from any goroutine; the
// interactive surface calls this for Ctrl+C keystrokes and the signal
// handler calls it for SIGINT.
func (c *Controller) Trigger() {
	c.mu.Lock()
	if c.state == StateSignaled {
		hooks := make([]func(), len(c.hooks))
		copy(hooks, c.hooks)
		c.mu.Unlock()

		// Second interrupt while unwinding: release resources, give the
		// unwind a bounded moment, then leave.
		for _, hook := range hooks {
			hook()
		}
		time.Sleep(c.grace)
		c.exit(130)
		return
	}

	c.state = StateSignaled
	cancel := c.cancel
	c.mu.Unlock()
	cancel()
}

// Context returns the context for the current input cycle. It is
// cancelled when an interrupt arrives.
func (c *Controller) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Reset consumes any pending interrupt and starts a fresh cycle with a
// new context. Called at the top of each top-level input cycle. The
// check-and-clear is atomic: it returns whether an interrupt had been
// pending.
func (c *Controller) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasSignaled := c.state == StateSignaled
	c.state = StateIdle
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return wasSignaled
}

// Pending reports whether an unconsumed interrupt exists.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateSignaled
}

// OnHardStop registers a resource-release hook run before a hard exit.
func (c *Controller) OnHardStop(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}
