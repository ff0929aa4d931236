package testutil

import "sync"

// DeterministicClock is a thread-safe logical clock for tests. It satisfies
// store.Clock, so node writes get stamps 1, 2, 3, ... in call order.
//
// Unlike store.SystemClock, DeterministicClock can be reset or frozen, which
// lets the same scenario produce identical updated_at values on every run.
type DeterministicClock struct {
	mu     sync.Mutex
	seq    int64
	frozen bool
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
//
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{seq: 0}
}

// Next increments and returns the next sequence number. A frozen clock
// returns the current value unchanged.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozen {
		c.seq++
	}
	return c.seq
}

// Now is Next under the store.Clock name.
func (c *DeterministicClock) Now() int64 {
	return c.Next()
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Freeze stops the clock at v. Every later Next returns v until Unfreeze.
// Used to force equal updated_at values.
func (c *DeterministicClock) Freeze(v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = v
	c.frozen = true
}

// Unfreeze lets the clock advance again from its current value.
func (c *DeterministicClock) Unfreeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = false
}

// Reset resets the clock to 0 and unfreezes it.
//
// Used for test reuse. After Reset(), the next call to Next() returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
	c.frozen = false
}
