// Package progress carries best-effort pipeline progress events.
//
// Emitters never wait on listeners: every sink in this package either
// returns immediately or drops the event.
package progress

import (
	"sync"
)

// Event is one progress update. Progress is clamped to 0..100.
type Event struct {
	Progress int    `json:"progress"`
	Status   string `json:"status"`
}

// Reporter receives progress updates. Implementations must not block.
type Reporter interface {
	Report(progress int, status string)
}

// Func adapts a plain function to Reporter.
type Func func(progress int, status string)

// Report calls f.
func (f Func) Report(progress int, status string) {
	if f != nil {
		f(clamp(progress), status)
	}
}

type nopReporter struct{}

func (nopReporter) Report(int, string) {}

// Nop discards every event.
var Nop Reporter = nopReporter{}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop
	}
	return r
}

// Multi fans an event out to several reporters in order.
func Multi(reporters ...Reporter) Reporter {
	kept := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return Func(func(p int, s string) {
		for _, r := range kept {
			r.Report(p, s)
		}
	})
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Channel is a bounded event queue. When full, the oldest queued event is
// dropped to make room for the new one.
type Channel struct {
	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped int
}

// NewChannel creates a Channel holding at most size events (minimum 1).
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{ch: make(chan Event, size)}
}

// Report enqueues an event without blocking.
func (c *Channel) Report(progress int, status string) {
	e := Event{Progress: clamp(progress), Status: status}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.ch <- e:
		return
	default:
	}

	// Full: evict the oldest, then retry once.
	select {
	case <-c.ch:
		c.dropped++
	default:
	}
	select {
	case c.ch <- e:
	default:
		c.dropped++
	}
}

// Events returns the receive side of the queue. It is closed by Close.
func (c *Channel) Events() <-chan Event {
	return c.ch
}

// Dropped returns how many events were discarded on overflow.
func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close stops accepting events and closes the receive side.
// Safe to call more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

var _ Reporter = (*Channel)(nil)
