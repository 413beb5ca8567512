package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-key token bucket used when no redis is configured.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	window  time.Duration
	now     func() time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 1
	}

	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b.lim
}

// Allow has the same shape as the redis sliding window limiter. The current
// count is not tracked by a token bucket and is always zero.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, time.Duration, error) {
	now := l.now()

	r := l.get(key, now).ReserveN(now, 1)
	if !r.OK() {
		return false, 0, 0, nil
	}

	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, 0, d, nil
	}

	return true, 0, 0, nil
}

// Prune drops buckets idle for at least a full window. Such a bucket has
// refilled, so a returning client starts from the same state.
func (l *Limiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.window {
			delete(l.buckets, key)
			n++
		}
	}

	return n
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RunPruner prunes idle buckets on schedule until ctx is done.
func (l *Limiter) RunPruner(ctx context.Context, schedule string) error {
	const op = "memory.Limiter.RunPruner"

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { l.Prune(l.now()) }); err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, schedule, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}
