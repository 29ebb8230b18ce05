package rest

import (
	"github.com/AzielCF/az-ravena/core/config"
	"github.com/AzielCF/az-ravena/pkg/msgworker"
	"github.com/gofiber/fiber/v2"
)

// WorkerStats is satisfied by the message worker pool.
type WorkerStats interface {
	GetStats() msgworker.PoolStats
}

// InitRestMonitoring registers the operational endpoints on the api group.
func InitRestMonitoring(api fiber.Router, pool WorkerStats) {
	api.Get("/monitor", GetBotMonitorStats)
	api.Get("/settings", func(c *fiber.Ctx) error {
		return success(c, "Settings retrieved", config.GetAllSettings())
	})
	api.Get("/workers", func(c *fiber.Ctx) error {
		if pool == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Worker pool not initialized",
			})
		}
		return c.JSON(pool.GetStats())
	})
}
