package rest

import (
	"fmt"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	"github.com/AzielCF/az-ravena/pkg/timeutils"
	"github.com/AzielCF/az-ravena/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const defaultRestartReason = "Reinicialização pelo painel web"

type Bot struct {
	Registry domainBot.IBotRegistry
}

type BotResponse struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Prefix      string `json:"prefix"`
	Connected   bool   `json:"connected"`
	StartedAt   int64  `json:"started_at,omitempty"`
	Uptime      string `json:"uptime,omitempty"`
}

// InitRestBot registers the restart endpoint on app behind auth, the way the
// dashboard calls it, and the bot listing on the api group.
func InitRestBot(app fiber.Router, api fiber.Router, registry domainBot.IBotRegistry, auth fiber.Handler) Bot {
	handler := Bot{Registry: registry}

	app.Post("/restart/:botId", auth, handler.Restart)
	api.Get("/bots", handler.List)

	return handler
}

func (handler *Bot) List(c *fiber.Ctx) error {
	bots := handler.Registry.List()
	out := make([]BotResponse, 0, len(bots))
	for _, b := range bots {
		item := BotResponse{
			ID:          b.ID(),
			PhoneNumber: b.PhoneNumber(),
			Prefix:      b.Prefix(),
			Connected:   b.IsConnected(),
		}
		if started := b.StartedAt(); !started.IsZero() {
			item.StartedAt = started.UnixMilli()
			item.Uptime = timeutils.FormatUptime(time.Since(started))
		}
		out = append(out, item)
	}
	return success(c, "Bots retrieved", out)
}

func (handler *Bot) Restart(c *fiber.Ctx) error {
	var request domainBot.RestartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return fail(c, pkgError.ValidationError("invalid JSON body"))
		}
	}
	request.BotID = c.Params("botId")

	if err := validations.ValidateRestartBot(c.UserContext(), request); err != nil {
		return fail(c, err)
	}
	if _, ok := handler.Registry.Get(request.BotID); !ok {
		return fail(c, pkgError.NotFoundError(fmt.Sprintf("bot %s not found", request.BotID)))
	}

	reason := request.Reason
	if reason == "" {
		reason = defaultRestartReason
	}
	if err := handler.Registry.RestartBot(c.UserContext(), request.BotID, reason); err != nil {
		return fail(c, pkgError.InternalServerError(err.Error()))
	}

	logrus.WithFields(logrus.Fields{"bot_id": request.BotID, "reason": reason}).Info("[REST] Restart requested from dashboard")
	return success(c, "Reinicialização iniciada", fiber.Map{"bot_id": request.BotID, "reason": reason})
}
