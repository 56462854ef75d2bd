package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only repository capped at a fixed
// number of events. Oldest events are discarded once the cap is reached;
// the trail is an operational aid, not durable history.

const defaultCap = 1000

type MemoryRepo struct {
	mu     sync.Mutex
	cap    int
	events []Event
}

func NewMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = defaultCap
	}
	return &MemoryRepo{cap: capacity}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *MemoryRepo) Recent(ctx context.Context, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]Event, 0, limit)
	for i := len(r.events) - 1; i >= len(r.events)-limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}
