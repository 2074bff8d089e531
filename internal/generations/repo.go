package generations

import (
	"context"
	"time"
)

// Repo defines persistence operations for generation history.
type Repo interface {
	Create(ctx context.Context, gen Generation) error
	GetByID(ctx context.Context, userID, generationID string) (Generation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Generation, error)
	MarkExpired(ctx context.Context, generationID string, at time.Time) error
}
