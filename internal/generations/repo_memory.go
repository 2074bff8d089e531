package generations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores generation history in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Generation
	byUser map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Generation),
		byUser: make(map[string][]string),
	}
}

// Create stores the generation.
func (r *MemoryRepo) Create(ctx context.Context, gen Generation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[gen.ID]; !exists {
		r.byUser[gen.UserID] = append(r.byUser[gen.UserID], gen.ID)
	}
	r.byID[gen.ID] = gen
	return nil
}

// GetByID returns a generation by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, generationID string) (Generation, error) {
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.byID[generationID]
	if !ok {
		return Generation{}, ErrNotFound
	}
	if gen.UserID != userID {
		return Generation{}, ErrForbidden
	}
	return gen, nil
}

// ListByUser returns generations for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	ids := r.byUser[userID]
	gens := make([]Generation, 0, len(ids))
	for _, id := range ids {
		gens = append(gens, r.byID[id])
	}
	r.mu.RUnlock()

	if len(gens) == 0 || offset >= len(gens) {
		return []Generation{}, nil
	}
	sort.SliceStable(gens, func(i, j int) bool {
		return gens[i].CreatedAt.After(gens[j].CreatedAt)
	})

	end := len(gens)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return gens[offset:end], nil
}

// MarkExpired records that the generation's artifact is gone.
func (r *MemoryRepo) MarkExpired(ctx context.Context, generationID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	gen, ok := r.byID[generationID]
	if !ok {
		return ErrNotFound
	}
	gen.ExpiredAt = &at
	r.byID[generationID] = gen
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
