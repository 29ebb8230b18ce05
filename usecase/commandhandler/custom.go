package commandhandler

import (
	"context"
	"strconv"
	"strings"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

// CheckAutoTriggered answers text with the group's custom commands that do
// not need a prefix. It reports whether one matched.
func (h *Handler) CheckAutoTriggered(ctx context.Context, b domainBot.IBot, msg *message.Message, text string, g *group.Group) bool {
	if g == nil || strings.TrimSpace(text) == "" {
		return false
	}
	handled, err := h.runCustom(ctx, b, msg, text, g, true)
	if err != nil {
		logrus.WithError(err).WithField("chat", g.ID).Error("[COMMAND] Auto triggered command failed")
	}
	return handled
}

// matchesTrigger compares the trigger with the whole text or its first word.
func matchesTrigger(text, trigger string) bool {
	text = strings.TrimSpace(text)
	trigger = strings.TrimSpace(trigger)
	if trigger == "" || text == "" {
		return false
	}
	if strings.EqualFold(text, trigger) {
		return true
	}
	fields := strings.Fields(text)
	return strings.EqualFold(fields[0], trigger)
}

func (h *Handler) runCustom(ctx context.Context, b domainBot.IBot, msg *message.Message, text string, g *group.Group, autoOnly bool) (bool, error) {
	idx := -1
	for i := range g.CustomCommands {
		cc := &g.CustomCommands[i]
		if autoOnly && !cc.IgnorePrefix {
			continue
		}
		if matchesTrigger(text, cc.Trigger) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	cc := &g.CustomCommands[idx]
	if len(cc.Responses) == 0 {
		return true, nil
	}
	cc.Count++
	response := cc.Responses[h.pick(len(cc.Responses))]

	author := msg.AuthorName
	if author == "" {
		author = b.GetContactName(ctx, msg.Author)
	}
	text = utils.ReplacePlaceholders(response, map[string]string{
		"pessoa":   author,
		"grupo":    g.Name,
		"contador": strconv.Itoa(cc.Count),
	})

	if h.groups != nil {
		if err := h.groups.SaveGroup(ctx, g); err != nil {
			logrus.WithError(err).Warnf("[COMMAND] Could not save counter of %s", cc.Trigger)
		}
	}

	botmonitor.Record(botmonitor.Event{
		BotID:   b.ID(),
		ChatID:  msg.ChatID,
		Command: cc.Trigger,
		Stage:   botmonitor.StageCommand,
		Kind:    "custom",
		Status:  botmonitor.StatusOK,
	})

	_, err := b.SendReturnMessages(ctx, message.Reply(msg, text))
	return true, err
}
