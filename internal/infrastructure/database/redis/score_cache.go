package redis

import (
	"context"
	"time"
)

// scoreEntry is the cached form of one engine result.
type scoreEntry struct {
	Value    string    `json:"value"`
	ScoredAt time.Time `json:"scored_at"`
}

// ScoreCache caches raw engine values by request fingerprint.  The
// fingerprint is computed by the caller and already covers the molecule and
// the resolved component, so stale parameters can never match.
type ScoreCache struct {
	cache Cache
	ttl   time.Duration
}

// NewScoreCache wraps cache; ttl 0 uses the cache default.
func NewScoreCache(cache Cache, ttl time.Duration) *ScoreCache {
	return &ScoreCache{cache: cache, ttl: ttl}
}

// GetOrCompute returns the cached value for key or runs compute and stores
// its result.  Errors from compute are returned and never cached.
func (s *ScoreCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (string, error)) (string, bool, error) {
	var entry scoreEntry
	hit, err := s.cache.GetOrSet(ctx, key, &entry, s.ttl, func(ctx context.Context) (interface{}, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return &scoreEntry{Value: v, ScoredAt: time.Now().UTC()}, nil
	})
	if err != nil {
		return "", false, err
	}
	return entry.Value, hit, nil
}

// Ping checks the backing store.
func (s *ScoreCache) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

//Personal.AI order the ending
