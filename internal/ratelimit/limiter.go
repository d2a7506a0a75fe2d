// Package ratelimit implements a fixed-window request counter keyed by
// caller-supplied strings (typically "ip:path"). The store is process-local
// and best-effort: restarting the process resets every window, and multiple
// instances count independently.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket names with built-in defaults.
const (
	BucketDefault = "default"
	BucketAuth    = "auth"
)

const sweepInterval = 5 * time.Minute

// Config caps requests per key within non-overlapping windows.
type Config struct {
	Limit  int
	Window time.Duration
}

// Result describes the outcome of one Allow call. Reset is the instant the
// current window ends.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type entry struct {
	count int
	reset time.Time
}

// Limiter is an explicit, constructed counter store with a background
// sweeper. Create one at process start, Run it, and stop it via context at
// shutdown.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]Config
	entries map[string]entry
	now     func() time.Time
}

// New returns a Limiter with the built-in default and auth buckets.
func New() *Limiter {
	return &Limiter{
		buckets: map[string]Config{
			BucketDefault: {Limit: 60, Window: time.Minute},
			BucketAuth:    {Limit: 5, Window: time.Minute},
		},
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetBucket overrides or adds a named bucket configuration.
func (l *Limiter) SetBucket(name string, cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[name] = cfg
}

// Allow counts one request against the bucket's window for key and reports
// whether it is within the cap. Unknown bucket names fall back to the
// default bucket.
func (l *Limiter) Allow(bucket, key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, ok := l.buckets[bucket]
	if !ok {
		cfg = l.buckets[BucketDefault]
	}

	now := l.now()
	key = bucket + "|" + key

	e, ok := l.entries[key]
	if !ok || !now.Before(e.reset) {
		e = entry{count: 0, reset: now.Add(cfg.Window)}
	}
	e.count++
	l.entries[key] = e

	remaining := cfg.Limit - e.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   e.count <= cfg.Limit,
		Limit:     cfg.Limit,
		Remaining: remaining,
		Reset:     e.reset,
	}
}

// Sweep drops entries whose window has ended. It runs periodically from
// Run but is exported so callers and tests can trigger it directly.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if !now.Before(e.reset) {
			delete(l.entries, key)
		}
	}
}

// Run sweeps expired windows until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len reports the number of live window entries.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
