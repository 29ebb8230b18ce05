package eventhandler

import (
	"context"
	"regexp"
	"strings"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/sirupsen/logrus"
)

const (
	reasonWord   = "word"
	reasonLink   = "link"
	reasonPerson = "person"
	reasonNSFW   = "nsfw"
)

var linkPattern = regexp.MustCompile(`https?://[^\s]+`)

// filterReason returns why msg breaks a text filter of g, or "".
func filterReason(g *group.Group, msg *message.Message) string {
	text := strings.ToLower(msg.Text())
	if text != "" {
		for _, w := range g.Filters.Words {
			if w != "" && strings.Contains(text, strings.ToLower(w)) {
				return reasonWord
			}
		}
		if g.Filters.Links && linkPattern.MatchString(text) {
			return reasonLink
		}
	}
	for _, p := range g.Filters.People {
		if p != "" && strings.Contains(msg.Author, p) {
			return reasonPerson
		}
	}
	return ""
}

func classifiable(msg *message.Message) bool {
	return msg.Type == message.TypeImage || (msg.Type == message.TypeSticker && strings.Contains(msg.MimeType, "webp"))
}

// applyFilters deletes msg when a filter of g matches and reports whether it did.
func (h *EventHandler) applyFilters(ctx context.Context, b domainBot.IBot, msg *message.Message, g *group.Group) bool {
	reason := filterReason(g, msg)
	if reason == "" && g.Filters.NSFW && h.deps.NSFW != nil && classifiable(msg) {
		if h.isNSFW(ctx, b, msg) {
			reason = reasonNSFW
		}
	}
	if reason == "" {
		return false
	}

	logger := logrus.WithFields(logrus.Fields{"bot_id": b.ID(), "chat": msg.ChatID, "author": msg.Author, "reason": reason})
	status := botmonitor.StatusOK
	var errText string
	if err := b.DeleteMessage(ctx, msg); err != nil {
		logger.WithError(err).Warn("[FILTER] Could not delete message")
		status, errText = botmonitor.StatusError, err.Error()
	} else {
		logger.Info("[FILTER] Message deleted")
	}

	botmonitor.Record(botmonitor.Event{
		BotID:    b.ID(),
		ChatID:   msg.ChatID,
		Stage:    botmonitor.StageFiltered,
		Kind:     string(msg.Type),
		Status:   status,
		Error:    errText,
		Metadata: map[string]string{"reason": reason},
	})
	if h.deps.Notify != nil {
		h.deps.Notify(domainBot.StatusEvent{
			Type:      domainBot.StatusFiltered,
			BotID:     b.ID(),
			Data:      map[string]any{"chat": msg.ChatID, "author": msg.Author, "reason": reason},
			Timestamp: time.Now(),
		})
	}
	return true
}

func (h *EventHandler) isNSFW(ctx context.Context, b domainBot.IBot, msg *message.Message) bool {
	media, err := b.DownloadMedia(ctx, msg)
	if err != nil {
		logrus.WithError(err).Debug("[FILTER] Could not download media for NSFW check")
		return false
	}
	res, err := h.deps.NSFW.Classify(ctx, media.Data, media.MimeType)
	if err != nil {
		logrus.WithError(err).Warn("[FILTER] NSFW classification failed")
		return false
	}
	return res.IsNSFW
}
