package cooldown

import (
	"context"
	"time"

	"github.com/AzielCF/az-ravena/infrastructure/valkey"
	"github.com/sirupsen/logrus"
)

// ValkeyCooldown shares cooldowns between processes through SET NX PX.
type ValkeyCooldown struct {
	client *valkey.Client
}

func NewValkeyCooldown(client *valkey.Client) *ValkeyCooldown {
	return &ValkeyCooldown{client: client}
}

func (c *ValkeyCooldown) Allow(ctx context.Context, key string, every time.Duration) bool {
	if every <= 0 {
		return true
	}
	ok, err := c.client.Acquire(ctx, c.client.Key("cooldown", key), every)
	if err != nil {
		// Valkey outages must not block commands.
		logrus.WithError(err).Warn("[COOLDOWN] Valkey unavailable, allowing command")
		return true
	}
	return ok
}
