package commandhandler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	msgSuperAdminOnly = "⛔ Apenas super administradores podem usar este comando."
	msgAdminOnly      = "⛔ Apenas administradores do grupo podem usar este comando."
	msgGroupOnly      = "Este comando só pode ser usado em grupos."
	msgNeedsQuoted    = "Este comando precisa ser usado respondendo a uma mensagem."
	msgNeedsMedia     = "Este comando precisa de uma mídia. Envie junto ou responda a uma mensagem com mídia."
	msgCommandError   = "❌ Erro ao executar o comando. Tente novamente mais tarde."

	defaultErrorReaction = "❌"
)

// Handler routes command texts to the registered commands and to the
// custom commands of each group.
type Handler struct {
	mu       sync.RWMutex
	commands []*command.Command
	byName   map[string]*command.Command

	groups          group.IGroupRepository
	cooldown        command.ICooldown
	superAdmins     []string
	defaultCooldown time.Duration
	pick            func(n int) int
}

func New(groups group.IGroupRepository, cooldown command.ICooldown, superAdmins []string, defaultCooldown time.Duration) *Handler {
	return &Handler{
		byName:          make(map[string]*command.Command),
		groups:          groups,
		cooldown:        cooldown,
		superAdmins:     superAdmins,
		defaultCooldown: defaultCooldown,
		pick:            rand.IntN,
	}
}

// Register adds commands by name and alias. A later registration of the
// same name replaces the earlier one.
func (h *Handler) Register(cmds ...*command.Command) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range cmds {
		if c == nil || c.Method == nil {
			continue
		}
		if _, exists := h.byName[strings.ToLower(c.Name)]; !exists {
			h.commands = append(h.commands, c)
		}
		for _, name := range c.Names() {
			h.byName[name] = c
		}
	}
}

// Commands lists the registered commands in registration order.
func (h *Handler) Commands() []*command.Command {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*command.Command, len(h.commands))
	copy(out, h.commands)
	return out
}

func (h *Handler) Find(name string) (*command.Command, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.byName[strings.ToLower(name)]
	return c, ok
}

func (h *Handler) IsSuperAdmin(authorID string) bool {
	for _, admin := range h.superAdmins {
		if utils.SameUser(utils.UserJID(admin), authorID) {
			return true
		}
	}
	return false
}

// IsAdmin accepts WhatsApp group admins, the group's additional admins and
// super admins.
func (h *Handler) IsAdmin(ctx context.Context, b domainBot.IBot, authorID string, g *group.Group) bool {
	if h.IsSuperAdmin(authorID) {
		return true
	}
	if g == nil {
		return false
	}
	if g.IsAdditionalAdmin(utils.UserPart(authorID)) {
		return true
	}
	ok, err := b.IsUserAdminInGroup(ctx, authorID, g.ID)
	if err != nil {
		logrus.WithError(err).Warnf("[COMMAND] Could not check admins of %s", g.ID)
		return false
	}
	return ok
}

// Handle runs commandText, which already had the prefix removed.
func (h *Handler) Handle(ctx context.Context, b domainBot.IBot, msg *message.Message, commandText string, g *group.Group) error {
	fields := strings.Fields(commandText)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])

	if cmd, ok := h.Find(name); ok {
		req := command.NewRequest(b, msg, g, name, fields[1:])
		return h.Execute(ctx, req, cmd)
	}

	if g != nil {
		if handled, err := h.runCustom(ctx, b, msg, commandText, g, false); handled || err != nil {
			return err
		}
	}
	logrus.Debugf("[COMMAND] Unknown command %q from %s", name, msg.Author)
	return nil
}

// Execute checks the command constraints, runs it and sends its replies.
func (h *Handler) Execute(ctx context.Context, req *command.Request, cmd *command.Command) (err error) {
	b, msg := req.Bot, req.Message
	logger := logrus.WithFields(logrus.Fields{"bot_id": b.ID(), "chat": msg.ChatID, "command": cmd.Name})

	if reply, ok := h.checkConstraints(ctx, req, cmd); !ok {
		if reply != "" {
			_, sendErr := b.SendReturnMessages(ctx, req.Reply(reply))
			return sendErr
		}
		return nil
	}

	every := cmd.Cooldown
	if every == 0 {
		every = h.defaultCooldown
	}
	if every > 0 && h.cooldown != nil {
		key := b.ID() + "|" + msg.ChatID + "|" + strings.ToLower(cmd.Name)
		if !h.cooldown.Allow(ctx, key, every) {
			logger.Debug("[COMMAND] On cooldown")
			return nil
		}
	}

	started := time.Now()
	if cmd.Reactions.Before != "" {
		h.react(ctx, b, msg, cmd.Reactions.Before)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[COMMAND] Panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("command %s panicked: %v", cmd.Name, r)
		}
		h.finish(ctx, req, cmd, started, err)
	}()

	replies, err := cmd.Method(ctx, req)
	if err != nil {
		return err
	}
	if len(replies) > 0 {
		if _, err = b.SendReturnMessages(ctx, replies...); err != nil {
			return fmt.Errorf("failed to send replies of %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func (h *Handler) checkConstraints(ctx context.Context, req *command.Request, cmd *command.Command) (string, bool) {
	author := req.Author()
	switch {
	case cmd.SuperAdminOnly && !h.IsSuperAdmin(author):
		return msgSuperAdminOnly, false
	case cmd.GroupOnly && req.Group == nil:
		return msgGroupOnly, false
	case cmd.AdminOnly && !h.IsAdmin(ctx, req.Bot, author, req.Group):
		return msgAdminOnly, false
	}

	if cmd.NeedsQuotedMsg || cmd.NeedsMedia {
		quoted, err := req.Quoted(ctx)
		if err != nil {
			logrus.WithError(err).Warn("[COMMAND] Failed to resolve quoted message")
		}
		if cmd.NeedsQuotedMsg && quoted == nil {
			return msgNeedsQuoted, false
		}
		if cmd.NeedsMedia && !req.Message.Type.HasMedia() && (quoted == nil || !quoted.Type.HasMedia()) {
			return msgNeedsMedia, false
		}
	}
	return "", true
}

func (h *Handler) finish(ctx context.Context, req *command.Request, cmd *command.Command, started time.Time, err error) {
	b, msg := req.Bot, req.Message
	event := botmonitor.Event{
		BotID:      b.ID(),
		ChatID:     msg.ChatID,
		Command:    cmd.Name,
		Stage:      botmonitor.StageCommand,
		Kind:       cmd.Category,
		Status:     botmonitor.StatusOK,
		DurationMs: time.Since(started).Milliseconds(),
	}

	if err == nil {
		botmonitor.Record(event)
		if cmd.Reactions.After != "" {
			h.react(ctx, b, msg, cmd.Reactions.After)
		}
		return
	}

	event.Status = botmonitor.StatusError
	event.Error = err.Error()
	botmonitor.Record(event)
	logrus.WithError(err).WithFields(logrus.Fields{"bot_id": b.ID(), "command": cmd.Name}).Error("[COMMAND] Failed")

	emoji := cmd.Reactions.Error
	if emoji == "" {
		emoji = defaultErrorReaction
	}
	h.react(ctx, b, msg, emoji)
	if _, sendErr := b.SendReturnMessages(ctx, req.Reply(msgCommandError)); sendErr != nil {
		logrus.WithError(sendErr).Warn("[COMMAND] Could not send error reply")
	}
}

func (h *Handler) react(ctx context.Context, b domainBot.IBot, msg *message.Message, emoji string) {
	if err := b.React(ctx, msg, emoji); err != nil {
		logrus.WithError(err).Debugf("[COMMAND] Reaction %s failed", emoji)
	}
}
