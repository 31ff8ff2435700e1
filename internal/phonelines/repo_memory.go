package phonelines

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests.
// It is not intended for production use.

type MemoryRepo struct {
	mu    sync.RWMutex
	lines map[string]PhoneLine
}

func NewMemoryRepo(lines ...PhoneLine) *MemoryRepo {
	r := &MemoryRepo{lines: make(map[string]PhoneLine, len(lines))}
	for _, l := range lines {
		r.Put(l)
	}
	return r
}

func (r *MemoryRepo) Put(l PhoneLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[NormalizeNumber(l.PhoneNumber)] = l
}

func (r *MemoryRepo) GetByNumber(ctx context.Context, number string) (PhoneLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lines[NormalizeNumber(number)]
	if !ok {
		return PhoneLine{}, ErrNotFound
	}
	return l, nil
}
