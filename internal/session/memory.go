package session

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryStore keeps entries in a mutex-guarded map.
type MemoryStore[T any] struct {
	mu       sync.Mutex
	items    map[string]entry[T]
	ttl      time.Duration
	now      func() time.Time
	onExpire ExpireFunc[T]
}

// NewMemoryStore returns a store whose entries live for ttl (DefaultTTL when zero).
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock swaps the time source.
func (s *MemoryStore[T]) WithClock(now func() time.Time) *MemoryStore[T] {
	s.now = now
	return s
}

// OnExpire registers fn to run for entries removed by Sweep.
func (s *MemoryStore[T]) OnExpire(fn ExpireFunc[T]) *MemoryStore[T] {
	s.onExpire = fn
	return s
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, value T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = entry[T]{value: value, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Get returns ErrNotFound once the entry's expiry has passed, even before a sweep.
func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok || !s.now().Before(e.expiresAt) {
		var zero T
		return zero, ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Sweep removes expired entries. Expiry callbacks run after the lock is released.
func (s *MemoryStore[T]) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	now := s.now()
	expired := make(map[string]T)
	for id, e := range s.items {
		if !now.Before(e.expiresAt) {
			expired[id] = e.value
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	if s.onExpire != nil {
		for id, v := range expired {
			s.onExpire(ctx, id, v)
		}
	}
	return len(expired), nil
}

// Len reports the number of entries, expired or not.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
