package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCooldown_BlocksWithinInterval(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCooldown()

	assert.True(t, c.Allow(ctx, "bot|group|ping", time.Hour))
	assert.False(t, c.Allow(ctx, "bot|group|ping", time.Hour))
	assert.True(t, c.Allow(ctx, "bot|other|ping", time.Hour))
}

func TestMemoryCooldown_ZeroIntervalAlwaysAllows(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCooldown()

	for i := 0; i < 3; i++ {
		assert.True(t, c.Allow(ctx, "k", 0))
	}
}

func TestMemoryCooldown_RefillsAfterInterval(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCooldown()

	assert.True(t, c.Allow(ctx, "k", 20*time.Millisecond))
	assert.False(t, c.Allow(ctx, "k", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	assert.True(t, c.Allow(ctx, "k", 20*time.Millisecond))
}

func TestMemoryCooldown_CleanupEvictsIdleEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemoryCooldown()
	c.now = func() time.Time { return now }

	assert.True(t, c.Allow(ctx, "bot|a|ping", time.Minute))
	assert.True(t, c.Allow(ctx, "bot|b|ping", time.Hour))
	assert.Equal(t, 2, c.Len())

	now = now.Add(2 * time.Minute)
	c.Cleanup()
	assert.Equal(t, 1, c.Len())
	assert.False(t, c.Allow(ctx, "bot|b|ping", time.Hour), "active cooldowns survive the sweep")
	assert.True(t, c.Allow(ctx, "bot|a|ping", time.Minute))
}

func TestMemoryCooldown_JanitorStopsWithContext(t *testing.T) {
	now := time.Now()
	c := NewMemoryCooldown()
	c.now = func() time.Time { return now }
	c.Allow(context.Background(), "k", time.Millisecond)
	now = now.Add(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}
