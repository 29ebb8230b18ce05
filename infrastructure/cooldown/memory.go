package cooldown

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	every    time.Duration
	lastUsed time.Time
}

// MemoryCooldown keeps one single-token limiter per key.
type MemoryCooldown struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{entries: make(map[string]*entry), now: time.Now}
}

func (c *MemoryCooldown) Allow(ctx context.Context, key string, every time.Duration) bool {
	if every <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[key]
	if !ok || e.every != every {
		e = &entry{limiter: rate.NewLimiter(rate.Every(every), 1), every: every}
		c.entries[key] = e
	}
	e.lastUsed = now
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops limiters idle for longer than their interval. Their token
// has refilled, so a fresh limiter behaves the same.
func (c *MemoryCooldown) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.lastUsed) >= e.every {
			delete(c.entries, k)
		}
	}
}

func (c *MemoryCooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (c *MemoryCooldown) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}
