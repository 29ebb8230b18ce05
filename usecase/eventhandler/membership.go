package eventhandler

import (
	"context"
	"fmt"
	"strings"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/group"
	domainInvite "github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	msgBotJoined = "🚪 Bot %s entrou no grupo: %s (%s)\nQuem add: %s"
	msgBotLeft   = "🚪 Bot %s saiu do grupo: %s (%s)\nQuem removeu: %s"
	msgWelcome   = "🦇 Olá, grupo! Eu sou a *ravenabot*, um bot de WhatsApp. Use \"%scmd\" para ver os comandos disponíveis."
	msgAddedBy   = "\n_(Adicionado por: %s)_"

	welcomePrompt = "Você é um bot de WhatsApp chamado ravenabot e foi adicionado em um grupo de whatsapp chamado '%s'%s, este grupo é sobre '%s' e tem '%d' participantes. Gere uma mensagem agradecendo a confiança e fazendo de conta que entende do assunto do grupo enviando algo relacionado junto pra se enturmar, seja natural."
)

// ProcessGroupJoin greets new members, or introduces the bot when it is the
// one joining.
func (h *EventHandler) ProcessGroupJoin(ctx context.Context, b domainBot.IBot, evt domainBot.MembershipEvent) error {
	defer h.lockGroup(evt.GroupID)()
	if evt.IncludesBot {
		return h.botJoined(ctx, b, evt)
	}

	g, err := h.GetOrCreateGroup(ctx, evt.GroupID, "")
	if err != nil {
		return err
	}
	if g.Paused || strings.TrimSpace(g.Greetings.Text) == "" {
		return nil
	}
	for _, user := range evt.UserIDs {
		if utils.SameUser(user, b.OwnJID()) {
			continue
		}
		h.sendMembershipText(ctx, b, g, g.Greetings.Text, user)
	}
	return nil
}

// ProcessGroupLeave says goodbye to members, or logs that the bot left.
func (h *EventHandler) ProcessGroupLeave(ctx context.Context, b domainBot.IBot, evt domainBot.MembershipEvent) error {
	defer h.lockGroup(evt.GroupID)()
	if evt.IncludesBot {
		name := evt.GroupName
		if cached, err := h.GetOrCreateGroup(ctx, evt.GroupID, ""); err == nil && name == "" {
			name = cached.Name
		}
		h.logNotice(ctx, b, fmt.Sprintf(msgBotLeft, b.ID(), name, evt.GroupID, h.describe(ctx, b, evt.AuthorID)))
		h.Forget(evt.GroupID)
		return nil
	}

	g, err := h.GetOrCreateGroup(ctx, evt.GroupID, "")
	if err != nil {
		return err
	}
	if g.Paused || strings.TrimSpace(g.Farewells.Text) == "" {
		return nil
	}
	for _, user := range evt.UserIDs {
		h.sendMembershipText(ctx, b, g, g.Farewells.Text, user)
	}
	return nil
}

func (h *EventHandler) sendMembershipText(ctx context.Context, b domainBot.IBot, g *group.Group, template, user string) {
	name := b.GetContactName(ctx, user)
	text := utils.ReplacePlaceholders(template, map[string]string{"pessoa": name, "grupo": g.Name})
	if _, err := b.SendMessage(ctx, g.ID, message.TextContent(text), message.SendOptions{Mentions: []string{user}}); err != nil {
		logrus.WithError(err).WithField("chat", g.ID).Warn("[EVENT] Membership message failed")
	}
}

func (h *EventHandler) botJoined(ctx context.Context, b domainBot.IBot, evt domainBot.MembershipEvent) error {
	info, err := b.GetGroupInfo(ctx, evt.GroupID)
	if err != nil {
		logrus.WithError(err).Warnf("[EVENT] Could not load info of %s", evt.GroupID)
		info = domainBot.GroupInfo{ID: evt.GroupID, Name: evt.GroupName}
	}
	if info.Name == "" {
		info.Name = evt.GroupName
	}

	h.Forget(evt.GroupID)
	g, err := h.GetOrCreateGroup(ctx, evt.GroupID, "")
	if err != nil {
		return err
	}

	addedBy := h.describe(ctx, b, evt.AuthorID)
	h.logNotice(ctx, b, fmt.Sprintf(msgBotJoined, b.ID(), info.Name, evt.GroupID, addedBy))

	if join := h.matchPendingJoin(ctx, info, evt.AuthorID); join != nil {
		if !g.IsAdditionalAdmin(utils.UserPart(join.AuthorID)) {
			g.AdditionalAdmins = append(g.AdditionalAdmins, utils.UserJID(utils.UserPart(join.AuthorID)))
		}
		g.AddedBy = join.AuthorID
		if err := h.deps.Groups.SaveGroup(ctx, g); err != nil {
			logrus.WithError(err).Warnf("[EVENT] Could not save admins of %s", g.ID)
		}
		if h.deps.Invites != nil {
			if err := h.deps.Invites.RemovePendingJoin(ctx, join.Code); err != nil {
				logrus.WithError(err).Warnf("[EVENT] Could not remove pending join %s", join.Code)
			}
		}
		if join.AuthorName != "" {
			addedBy = join.AuthorName
		}
	}

	welcome := fmt.Sprintf(msgWelcome, g.EffectivePrefix(b.Prefix()))
	if addedBy != "" {
		welcome += fmt.Sprintf(msgAddedBy, addedBy)
	}
	if extra := h.welcomeGreeting(ctx, info, addedBy); extra != "" {
		welcome += "\n\n" + extra
	}
	_, err = b.SendMessage(ctx, evt.GroupID, message.TextContent(welcome), message.SendOptions{})
	return err
}

// matchPendingJoin finds the pending join whose author is the one who added
// the bot or already sits in the group.
func (h *EventHandler) matchPendingJoin(ctx context.Context, info domainBot.GroupInfo, authorID string) *domainInvite.PendingJoin {
	if h.deps.Invites == nil {
		return nil
	}
	joins, err := h.deps.Invites.GetPendingJoins(ctx)
	if err != nil {
		logrus.WithError(err).Warn("[EVENT] Could not read pending joins")
		return nil
	}
	for i := range joins {
		author := joins[i].AuthorID
		if authorID != "" && utils.SameUser(author, authorID) {
			return &joins[i]
		}
		for _, p := range info.Participants {
			if utils.SameUser(p.JID, author) {
				return &joins[i]
			}
		}
	}
	return nil
}

func (h *EventHandler) welcomeGreeting(ctx context.Context, info domainBot.GroupInfo, addedBy string) string {
	if h.deps.LLM == nil {
		return ""
	}
	by := ""
	if addedBy != "" {
		by = fmt.Sprintf(" por '%s'", addedBy)
	}
	topic := strings.TrimSpace(info.Topic)
	if topic == "" {
		topic = info.Name
	}
	answer, err := h.deps.LLM.GetCompletion(ctx, llm.CompletionRequest{
		Prompt:      fmt.Sprintf(welcomePrompt, info.Name, by, topic, len(info.Participants)),
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		logrus.WithError(err).Warn("[EVENT] Welcome greeting failed")
		return ""
	}
	return strings.TrimSpace(answer)
}

// describe renders a user as "Name (number)".
func (h *EventHandler) describe(ctx context.Context, b domainBot.IBot, userID string) string {
	if userID == "" {
		return ""
	}
	number := utils.UserPart(userID)
	name := b.GetContactName(ctx, userID)
	if name == "" || name == number {
		return number
	}
	return fmt.Sprintf("%s (%s)", name, number)
}

func (h *EventHandler) logNotice(ctx context.Context, b domainBot.IBot, text string) {
	logrus.WithField("bot_id", b.ID()).Info("[EVENT] " + strings.ReplaceAll(text, "\n", " | "))
	target := b.Community().Logs
	if target == "" {
		return
	}
	if _, err := b.SendMessage(ctx, target, message.TextContent(text), message.SendOptions{}); err != nil {
		logrus.WithError(err).Warn("[EVENT] Could not send notice to logs group")
	}
}
