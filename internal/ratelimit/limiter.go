// Package ratelimit bounds how often a client may submit reviews.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go-directory-app/internal/cache"
)

// Store persists limiter windows. Get returns nil for a missing or expired key.
// *cache.Cache satisfies it for single-instance deployments.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter allows at most max submissions per client in any rolling window.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	now    func() time.Time
	mu     sync.Mutex
}

// New creates a limiter backed by store.
func New(store Store, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{store: store, max: max, window: window, now: time.Now}
}

// Allow checks the client's window and records the submission when it fits.
func (l *Limiter) Allow(ctx context.Context, client string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := cache.RateLimitPrefix + client

	stamps, err := l.load(ctx, key)
	if err != nil {
		return Decision{}, err
	}

	cutoff := now.Add(-l.window).UnixMilli()
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		return Decision{Allowed: false, ResetAt: time.UnixMilli(kept[0]).Add(l.window)}, nil
	}

	kept = append(kept, now.UnixMilli())
	raw, err := json.Marshal(kept)
	if err != nil {
		return Decision{}, err
	}
	if err := l.store.Set(ctx, key, raw, l.window); err != nil {
		return Decision{}, fmt.Errorf("record submission: %w", err)
	}
	return Decision{
		Allowed:   true,
		Remaining: l.max - len(kept),
		ResetAt:   time.UnixMilli(kept[0]).Add(l.window),
	}, nil
}

func (l *Limiter) load(ctx context.Context, key string) ([]int64, error) {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load rate window: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var stamps []int64
	if err := json.Unmarshal(raw, &stamps); err != nil {
		// A corrupt window is treated as empty.
		return nil, nil
	}
	return stamps, nil
}
