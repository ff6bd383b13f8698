package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limit is a sliding-window policy: at most MaxRequests within Window.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetTime is when the oldest tracked request leaves the window. When no
	// requests are tracked it equals the time of the check.
	ResetTime time.Time
}

// Limiter tracks request timestamps per resource key within a sliding window.
// Keys without a registered limit are always admitted; treating an unknown key
// as unlimited keeps the limiter from becoming a hard dependency of callers.
//
// A Limiter is safe for concurrent use. Build one at the composition root and
// pass it by reference; there is no package-level instance.
type Limiter struct {
	// RetryMargin is added to the computed wait before rechecking in Wait.
	// Zero means the default of 100ms.
	RetryMargin time.Duration

	mu       sync.Mutex
	limits   map[string]Limit
	requests map[string][]time.Time
	now      func() time.Time
}

// New returns a Limiter preloaded with the default per-category policies.
func New() *Limiter {
	l := &Limiter{}
	l.SetLimit("itinerary", Limit{MaxRequests: 10, Window: time.Minute})
	l.SetLimit("search", Limit{MaxRequests: 100, Window: time.Minute})
	l.SetLimit("scraping", Limit{MaxRequests: 20, Window: time.Minute})
	return l
}

// SetLimit registers or replaces the policy for a key.
func (l *Limiter) SetLimit(key string, limit Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limits == nil {
		l.limits = make(map[string]Limit)
	}
	l.limits[key] = limit
}

// Check admits the request when fewer than MaxRequests timestamps fall inside
// the trailing window, appending the current time as a side effect of
// admission. Stale timestamps are pruned lazily here; there is no background
// sweep. Check never fails.
func (l *Limiter) Check(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	limit, ok := l.limits[key]
	if !ok {
		return Decision{Allowed: true, Remaining: int(^uint(0) >> 1), ResetTime: now}
	}

	windowStart := now.Add(-limit.Window)
	kept := l.requests[key][:0]
	for _, ts := range l.requests[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	allowed := len(kept) < limit.MaxRequests
	remaining := limit.MaxRequests - len(kept)
	if remaining < 0 {
		remaining = 0
	}
	resetTime := now
	if len(kept) > 0 {
		resetTime = kept[0].Add(limit.Window)
	}
	if allowed {
		kept = append(kept, now)
	}
	if l.requests == nil {
		l.requests = make(map[string][]time.Time)
	}
	l.requests[key] = kept

	return Decision{Allowed: allowed, Remaining: remaining, ResetTime: resetTime}
}

// Wait blocks until Check admits the key or ctx is done. Between attempts it
// sleeps until the reported reset time plus a small margin. Opt-in only: the
// request path uses the non-blocking Check and proceeds on rejection.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	for {
		d := l.Check(key)
		if d.Allowed {
			return nil
		}
		margin := l.RetryMargin
		if margin <= 0 {
			margin = 100 * time.Millisecond
		}
		wait := time.Until(d.ResetTime) + margin
		if wait < margin {
			wait = margin
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}
