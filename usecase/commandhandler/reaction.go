package commandhandler

import (
	"context"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

// HandleReaction runs the command whose trigger emoji matches r, using the
// reacted message as origin and quoted message. It reports whether a
// command ran.
func (h *Handler) HandleReaction(ctx context.Context, b domainBot.IBot, r domainBot.Reaction, g *group.Group) bool {
	if r.Emoji == "" || utils.SameUser(r.SenderID, b.OwnJID()) || b.IsBlocked(r.SenderID) {
		return false
	}

	cmd := h.findByReaction(r.Emoji)
	if cmd == nil {
		return false
	}

	origin, ok := b.GetCachedMessage(r.ChatID, r.MessageID)
	if !ok {
		logrus.Debugf("[COMMAND] Reacted message %s is not cached", r.MessageID)
		return false
	}

	req := command.NewRequest(b, origin, g, cmd.Name, nil).WithQuoted(origin)
	req.ReactedBy = r.SenderID

	logrus.WithFields(logrus.Fields{"bot_id": b.ID(), "chat": r.ChatID, "command": cmd.Name}).
		Infof("[COMMAND] Triggered by reaction %s", r.Emoji)
	if err := h.Execute(ctx, req, cmd); err != nil {
		logrus.WithError(err).Warn("[COMMAND] Reaction command failed")
	}
	return true
}

func (h *Handler) findByReaction(emoji string) *command.Command {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.commands {
		if c.Reactions.HasTrigger(emoji) {
			return c
		}
	}
	return nil
}
