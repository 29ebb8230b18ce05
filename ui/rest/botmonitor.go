package rest

import (
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/gofiber/fiber/v2"
)

// GetBotMonitorStats returns the pipeline counters and recent events,
// optionally filtered with ?bot=.
func GetBotMonitorStats(c *fiber.Ctx) error {
	return c.JSON(botmonitor.GetStats(c.Query("bot")))
}
