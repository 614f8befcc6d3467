package state

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clock abstracts timer creation so tests drive the coalescing window
// with a logical clock instead of waiting on real timers. A scheduled
// window always elapses; there is no cancel path.
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Coalescer rate-limits one high-frequency entity group. It is a
// two-state machine (idle / window open) with a single pending-mutation
// slot: scheduling while a window is open replaces the pending mutation,
// so only the last state before the window elapses is applied. Device
// updates are idempotent snapshots, so the dropped intermediates carry
// nothing the UI needs.
type Coalescer struct {
	mu      sync.Mutex
	clock   Clock
	window  time.Duration
	pending func()
	open    bool
	logger  *zap.Logger
}

// DefaultWindow is the coalescing delay used when none is configured.
const DefaultWindow = 100 * time.Millisecond

// NewCoalescer creates a coalescer on the real clock.
func NewCoalescer(window time.Duration, logger *zap.Logger) *Coalescer {
	return NewCoalescerWithClock(window, realClock{}, logger)
}

// NewCoalescerWithClock creates a coalescer on an injected clock.
func NewCoalescerWithClock(window time.Duration, clock Clock, logger *zap.Logger) *Coalescer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{
		clock:  clock,
		window: window,
		logger: logger,
	}
}

// Schedule stores mutation as the pending slot. If no window is open,
// one opens and the pending mutation runs exactly once when it elapses;
// otherwise the new mutation supersedes the previous one.
func (c *Coalescer) Schedule(mutation func()) {
	c.mu.Lock()
	c.pending = mutation
	if c.open {
		c.mu.Unlock()
		return
	}
	c.open = true
	c.mu.Unlock()

	c.clock.AfterFunc(c.window, c.fire)
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	mutation := c.pending
	c.pending = nil
	c.open = false
	c.mu.Unlock()

	if mutation != nil {
		mutation()
	}
}
