package store

import (
	"sync/atomic"
	"time"
)

// Clock supplies the write stamp stored in updated_at.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

func (f ClockFunc) Now() int64 { return f() }

// SystemClock stamps writes with Unix seconds. It never goes backwards within
// a process, even if the wall clock does.
//
// Thread-safety: SystemClock is safe for concurrent use (atomic operations).
type SystemClock struct {
	last atomic.Int64
}

// Now returns the current Unix time in seconds, or the last returned value if
// the wall clock has stepped back since.
func (c *SystemClock) Now() int64 {
	now := time.Now().Unix()
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}
