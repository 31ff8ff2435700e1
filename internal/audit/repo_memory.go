package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps audit events in process, indexed by call id.
// It is not intended for production use.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
	byCall map[string][]int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byCall: map[string][]int{}}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byCall == nil {
		r.byCall = map[string][]int{}
	}
	if e.CallID != "" {
		r.byCall[e.CallID] = append(r.byCall[e.CallID], len(r.events))
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything appended, oldest first.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ForCall returns the events recorded for one call, oldest first.
func (r *MemoryRepo) ForCall(callID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.byCall[callID]
	out := make([]Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.events[i])
	}
	return out
}
