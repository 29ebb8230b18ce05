package msgcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/AzielCF/az-ravena/domains/message"
)

// Cache keeps recently seen messages in memory for a short time so that
// quotes and reactions can be resolved back to the original message.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int
	items   map[string]entry
	now     func() time.Time
}

type entry struct {
	msg       *message.Message
	expiresAt time.Time
}

func New(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 20000
	}
	return &Cache{ttl: ttl, maxSize: maxSize, items: make(map[string]entry), now: time.Now}
}

func key(chatID, messageID string) string {
	return strings.TrimSpace(chatID) + "|" + strings.TrimSpace(messageID)
}

// Add stores msg under its chat and id.
func (c *Cache) Add(msg *message.Message) {
	if msg == nil || strings.TrimSpace(msg.ID) == "" || strings.TrimSpace(msg.ChatID) == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.items) >= c.maxSize {
		c.evictLocked(now)
	}
	c.items[key(msg.ChatID, msg.ID)] = entry{msg: msg, expiresAt: now.Add(c.ttl)}
}

// Get returns the cached message while it has not expired.
func (c *Cache) Get(chatID, messageID string) (*message.Message, bool) {
	k := key(chatID, messageID)

	c.mu.RLock()
	e, ok := c.items[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.items, k)
		c.mu.Unlock()
		return nil, false
	}
	return e.msg, true
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Cleanup removes every expired entry.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (c *Cache) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
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

// evictLocked drops expired entries, then the oldest ones until there is room.
func (c *Cache) evictLocked(now time.Time) {
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
	for len(c.items) >= c.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.items {
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey, oldest = k, e.expiresAt
			}
		}
		delete(c.items, oldestKey)
	}
}
