package reconcile

import "sync"

// Registry is the set of call ids currently eligible for active polling.
//
// Presence is the single source of truth for "should the poll loop
// continue"; absence is a cooperative cancellation signal, not a guarantee
// that no further poll attempt is in flight. A poll already past its
// membership check may still perform one more write — the store's
// monotonic-terminal merge makes that harmless.
//
// The registry is owned by the Coordinator and handed to collaborators by
// reference; there is no process-wide state.
type Registry struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{ids: map[string]struct{}{}}
}

func (r *Registry) Add(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[callID] = struct{}{}
}

// Remove reports whether the id was present.
func (r *Registry) Remove(callID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[callID]
	delete(r.ids, callID)
	return ok
}

func (r *Registry) Contains(callID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[callID]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
