// Package invite handles group invite links sent to the bot in private.
package invite

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	domainInvite "github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultReasonTimeout = 5 * time.Minute

	msgInvalidInvite = "❌ Este link de convite é inválido ou expirou."
	msgAskReason     = "Obrigada pelo convite para o grupo *%s*! 🦇\n\nMe conta em uma mensagem o motivo para eu entrar nesse grupo. Seu pedido será analisado pelos administradores."
	msgForwarded     = "✅ Obrigada! Seu pedido foi encaminhado para os administradores."
	noReason         = "(sem motivo informado)"
)

var inviteLink = regexp.MustCompile(`chat\.whatsapp\.com/(?:invite/)?([0-9A-Za-z]{6,})`)

// ExtractCode returns the invite code of the first WhatsApp group link in text.
func ExtractCode(text string) string {
	m := inviteLink.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

type pending struct {
	request domainInvite.InviteRequest
	bot     domainBot.IBot
	timer   *time.Timer
}

// System keeps invite requests waiting for their reason, one per author.
type System struct {
	mu      sync.Mutex
	pending map[string]*pending
	timeout time.Duration
	now     func() time.Time
}

func NewSystem(timeout time.Duration) *System {
	if timeout <= 0 {
		timeout = DefaultReasonTimeout
	}
	return &System{pending: make(map[string]*pending), timeout: timeout, now: time.Now}
}

// ProcessMessage consumes private messages carrying an invite link.
func (s *System) ProcessMessage(ctx context.Context, b domainBot.IBot, msg *message.Message) (bool, error) {
	code := ExtractCode(msg.Text())
	if code == "" {
		return false, nil
	}
	logger := logrus.WithFields(logrus.Fields{"bot_id": b.ID(), "author": msg.Author, "code": code})

	info, err := b.GetInviteInfo(ctx, code)
	if err != nil {
		logger.WithError(err).Info("[INVITE] Invalid invite link")
		_, sendErr := b.SendReturnMessages(ctx, message.Reply(msg, msgInvalidInvite))
		return true, sendErr
	}

	req := domainInvite.InviteRequest{
		Code:       code,
		AuthorID:   msg.Author,
		AuthorName: msg.AuthorName,
		GroupName:  info.Name,
		BotID:      b.ID(),
		Timestamp:  s.now().UTC(),
	}
	key := b.ID() + "|" + utils.UserPart(msg.Author)

	s.mu.Lock()
	if old, ok := s.pending[key]; ok {
		old.timer.Stop()
	}
	p := &pending{request: req, bot: b}
	p.timer = time.AfterFunc(s.timeout, func() { s.expire(key, p) })
	s.pending[key] = p
	s.mu.Unlock()

	logger.Infof("[INVITE] Invite to %q received, waiting for reason", info.Name)
	_, err = b.SendReturnMessages(ctx, message.Reply(msg, fmt.Sprintf(msgAskReason, info.Name)))
	return true, err
}

// ProcessFollowUp takes the next private message of an author with a
// pending request as the reason and forwards the request.
func (s *System) ProcessFollowUp(ctx context.Context, b domainBot.IBot, msg *message.Message) (bool, error) {
	reason := strings.TrimSpace(msg.Text())
	if reason == "" {
		return false, nil
	}
	p := s.take(b.ID() + "|" + utils.UserPart(msg.Author))
	if p == nil {
		return false, nil
	}
	p.request.Reason = reason

	if err := s.forward(ctx, b, p.request); err != nil {
		return true, err
	}
	_, err := b.SendReturnMessages(ctx, message.Reply(msg, msgForwarded))
	return true, err
}

// Clear drops every pending request for code.
func (s *System) Clear(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		if p.request.Code == code {
			p.timer.Stop()
			delete(s.pending, key)
		}
	}
}

// Pending returns a snapshot of the requests still waiting for a reason.
func (s *System) Pending() []domainInvite.InviteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domainInvite.InviteRequest, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p.request)
	}
	return out
}

func (s *System) take(key string) *pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return nil
	}
	p.timer.Stop()
	delete(s.pending, key)
	return p
}

func (s *System) expire(key string, p *pending) {
	s.mu.Lock()
	if s.pending[key] != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.forward(ctx, p.bot, p.request); err != nil {
		logrus.WithError(err).WithField("code", p.request.Code).Warn("[INVITE] Forward after timeout failed")
	}
}

// forward posts the request to the invites group, followed by the command
// that accepts it.
func (s *System) forward(ctx context.Context, b domainBot.IBot, req domainInvite.InviteRequest) error {
	target := b.Community().Invites
	if target == "" {
		logrus.WithField("bot_id", b.ID()).Warnf("[INVITE] No invites group configured, dropping request %s", req.Code)
		return nil
	}

	reason := req.Reason
	if reason == "" {
		reason = noReason
	}
	name := req.AuthorName
	if name == "" {
		name = utils.UserPart(req.AuthorID)
	}

	notice := fmt.Sprintf("📩 *Nova solicitação de convite*\n\n👤 Quem convidou: %s (%s)\n👥 Grupo: %s\n🤖 Bot: %s\n🕐 %s\n\n📝 Motivo: %s",
		name, utils.UserPart(req.AuthorID), req.GroupName, req.BotID, req.Timestamp.Local().Format("02/01/2006 15:04:05"), reason)
	accept := strings.TrimSpace(fmt.Sprintf("%ssa-joinGrupo %s %s %s", b.Prefix(), req.Code, utils.UserPart(req.AuthorID), req.AuthorName))

	_, err := b.SendReturnMessages(ctx, message.Text(target, notice), message.Text(target, accept))
	if err != nil {
		return fmt.Errorf("failed to forward invite %s: %w", req.Code, err)
	}
	logrus.WithFields(logrus.Fields{"bot_id": b.ID(), "code": req.Code}).Info("[INVITE] Request forwarded")
	return nil
}
