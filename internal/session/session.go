package session

import (
	"context"
	"errors"
	"time"

	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/telemetry"
)

// DefaultTTL is how long analysis and generation entries live.
const DefaultTTL = 60 * time.Minute

// ErrNotFound covers both unknown and expired ids.
var ErrNotFound = errors.New("session not found")

// ExpireFunc runs once for each entry removed by a sweep.
type ExpireFunc[T any] func(ctx context.Context, id string, value T)

// Store is an ephemeral cache of session entries keyed by generated id.
type Store[T any] interface {
	Put(ctx context.Context, id string, value T) error
	Get(ctx context.Context, id string) (T, error)
	Delete(ctx context.Context, id string) error
	Sweeper
}

// Sweeper purges expired entries and reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RunSweeper sweeps every store on each tick until ctx is done.
func RunSweeper(ctx context.Context, interval time.Duration, stores ...Sweeper) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			SweepAll(ctx, stores...)
		}
	}
}

// SweepAll runs one sweep over stores. A failing store does not stop the rest.
func SweepAll(ctx context.Context, stores ...Sweeper) int {
	total := 0
	for i, s := range stores {
		n, err := s.Sweep(ctx)
		if err != nil {
			telemetry.Error("session.sweep_failed", map[string]any{"store": i, "error": err})
			continue
		}
		total += n
	}
	metrics.AddSessionsExpired(total)
	if total > 0 {
		telemetry.Info("session.sweep", map[string]any{"removed": total})
	}
	return total
}
