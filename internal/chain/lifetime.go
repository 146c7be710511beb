package chain

import "sync"

// LifetimeRegistry holds strong references to chains for the duration
// of an in-flight request, so a chain survives across asynchronous
// suspension points even when no external caller retains it. The live
// count doubles as an instrumentation probe for leak and double-release
// checks.
type LifetimeRegistry struct {
	mu   sync.Mutex
	held map[uint64]any
	next uint64
}

func NewLifetimeRegistry() *LifetimeRegistry {
	return &LifetimeRegistry{held: make(map[uint64]any)}
}

// Retain stores a strong reference to v and returns the handle that
// releases it. The handle releases at most once regardless of how many
// times Release is called.
func (r *LifetimeRegistry) Retain(v any) *LifetimeHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	r.held[id] = v
	return &LifetimeHandle{registry: r, id: id}
}

// Live returns the number of currently retained references.
func (r *LifetimeRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.held)
}

func (r *LifetimeRegistry) release(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, id)
}

// LifetimeHandle is a single-use release guard for one retained
// reference.
type LifetimeHandle struct {
	once     sync.Once
	registry *LifetimeRegistry
	id       uint64
}

// Release drops the retained reference. Safe to call concurrently;
// only the first call has any effect.
func (h *LifetimeHandle) Release() {
	h.once.Do(func() {
		h.registry.release(h.id)
	})
}

// defaultLifetimes retains chains whose constructor was not given an
// explicit registry.
var defaultLifetimes = NewLifetimeRegistry()
