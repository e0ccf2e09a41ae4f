package webhook

import (
	"context"
	"sync"
)

// coalescer runs fn in the background at most once at a time. Triggers
// arriving during a run collapse into a single follow-up run.
type coalescer struct {
	fn func(ctx context.Context)

	mu      sync.Mutex
	running bool
	pending bool
	wg      sync.WaitGroup
}

func newCoalescer(fn func(ctx context.Context)) *coalescer {
	return &coalescer{fn: fn}
}

// Trigger starts a run, or schedules a follow-up when one is in flight.
// It reports whether a new run was started.
func (c *coalescer) Trigger(ctx context.Context) bool {
	c.mu.Lock()
	if c.running {
		c.pending = true
		c.mu.Unlock()
		return false
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop(ctx)
	return true
}

func (c *coalescer) loop(ctx context.Context) {
	defer c.wg.Done()
	for {
		c.fn(ctx)

		c.mu.Lock()
		if !c.pending || ctx.Err() != nil {
			c.running = false
			c.pending = false
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.mu.Unlock()
	}
}

// Wait blocks until no run is in flight.
func (c *coalescer) Wait() {
	c.wg.Wait()
}
