package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
)

// Ranking supplies popular product ids used for cross-sell suggestions.
type Ranking interface {
	BestSellers(ctx context.Context) ([]int64, error)
}

// RankFunc computes a fresh ranking.
type RankFunc func(ctx context.Context) ([]int64, error)

// CachedRanking memoizes a RankFunc and recomputes it lazily once the TTL elapses.
// A zero TTL keeps the first computed snapshot until Refresh is called.
type CachedRanking struct {
	rank RankFunc
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	ids      []int64
	loadedAt time.Time
	loaded   bool
}

// NewCachedRanking wraps rank with TTL-based caching.
func NewCachedRanking(rank RankFunc, ttl time.Duration) *CachedRanking {
	return &CachedRanking{rank: rank, ttl: ttl, now: time.Now}
}

// NewMinIDRanking ranks the lowest product id of each category as its best seller.
func NewMinIDRanking(store Store, ttl time.Duration) *CachedRanking {
	return NewCachedRanking(store.MinProductIDPerCategory, ttl)
}

// BestSellers returns the cached ranking, recomputing it when stale.
// A failed recomputation falls back to the previous snapshot if there is one.
func (r *CachedRanking) BestSellers(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded && (r.ttl <= 0 || r.now().Sub(r.loadedAt) < r.ttl) {
		return append([]int64(nil), r.ids...), nil
	}
	if err := r.refreshLocked(ctx); err != nil {
		if r.loaded {
			logger.Warn(ctx, "service.catalog", "ranking.stale",
				slog.String("status", "fail"),
				slog.Int("count", len(r.ids)),
				slog.String("err", err.Error()),
			)
			return append([]int64(nil), r.ids...), nil
		}
		return nil, err
	}
	return append([]int64(nil), r.ids...), nil
}

// Refresh recomputes the ranking immediately.
func (r *CachedRanking) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *CachedRanking) refreshLocked(ctx context.Context) error {
	ids, err := r.rank(ctx)
	if err != nil {
		return err
	}
	r.ids = ids
	r.loadedAt = r.now()
	r.loaded = true
	logger.Info(ctx, "service.catalog", "ranking.refresh",
		slog.String("status", "ok"),
		slog.Int("count", len(ids)),
	)
	return nil
}
