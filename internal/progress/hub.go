package progress

import "sync"

// DefaultBuffer is the per-subscriber queue size used by NewHub when the
// caller passes a non-positive size.
const DefaultBuffer = 32

// Hub routes events published under a key (typically a request id) to
// every subscriber of that key. Publishing with no subscriber is a no-op.
type Hub struct {
	mu     sync.Mutex
	size   int
	topics map[string]map[*Channel]struct{}
}

// NewHub creates a Hub whose subscribers buffer up to size events.
func NewHub(size int) *Hub {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &Hub{size: size, topics: make(map[string]map[*Channel]struct{})}
}

// Subscribe registers a listener for key. The returned cancel function
// unregisters it and closes the channel.
func (h *Hub) Subscribe(key string) (*Channel, func()) {
	c := NewChannel(h.size)

	h.mu.Lock()
	subs, ok := h.topics[key]
	if !ok {
		subs = make(map[*Channel]struct{})
		h.topics[key] = subs
	}
	subs[c] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[key]; ok {
				delete(subs, c)
				if len(subs) == 0 {
					delete(h.topics, key)
				}
			}
			h.mu.Unlock()
			c.Close()
		})
	}
	return c, cancel
}

// Publish delivers an event to every current subscriber of key.
func (h *Hub) Publish(key string, progress int, status string) {
	h.mu.Lock()
	subs := make([]*Channel, 0, len(h.topics[key]))
	for c := range h.topics[key] {
		subs = append(subs, c)
	}
	h.mu.Unlock()

	for _, c := range subs {
		c.Report(progress, status)
	}
}

// Subscribers returns the number of listeners for key.
func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[key])
}

// Reporter returns a Reporter publishing under key.
func (h *Hub) Reporter(key string) Reporter {
	return Func(func(p int, s string) { h.Publish(key, p, s) })
}
