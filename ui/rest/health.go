package rest

import (
	"strings"

	"github.com/AzielCF/az-ravena/domains/health"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/AzielCF/az-ravena/pkg/timeutils"
	"github.com/gofiber/fiber/v2"
)

// Health serves the public dashboard data.
type Health struct {
	Service   health.IHealthUsecase
	Analytics loadreport.IAnalyticsUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase, analytics loadreport.IAnalyticsUsecase) Health {
	handler := Health{Service: service, Analytics: analytics}

	app.Get("/health", handler.GetHealth)
	app.Get("/analytics", handler.GetAnalytics)

	return handler
}

func (h *Health) GetHealth(c *fiber.Ctx) error {
	report, err := h.Service.GetHealth(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

// GetAnalytics accepts ?period=today|week|month|year and any number of
// bots[] (or a comma separated bots) filters.
func (h *Health) GetAnalytics(c *fiber.Ctx) error {
	period := c.Query("period", timeutils.PeriodToday)

	var bots []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("bots[]") {
		if id := strings.TrimSpace(string(raw)); id != "" {
			bots = append(bots, id)
		}
	}
	for _, id := range strings.Split(c.Query("bots"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			bots = append(bots, id)
		}
	}

	data, err := h.Analytics.GetAnalytics(c.UserContext(), period, bots)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(data)
}
