package whatsapp

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AzielCF/az-ravena/core/config"
	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/AzielCF/az-ravena/pkg/chatpresence"
	"github.com/AzielCF/az-ravena/pkg/msgcache"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"golang.org/x/time/rate"
)

// Options carries everything a Bot needs besides its own session.
type Options struct {
	Bot           config.BotConfig
	Runtime       config.BotRuntimeConfig
	Whatsapp      config.WhatsappConfig
	App           config.AppConfig
	Community     domainBot.CommunityGroups
	SessionDriver string
	SessionURI    string

	Handler domainBot.IEventHandler
	Tracker loadreport.ILoadTracker
	// Notify receives connection and pairing events for the dashboard.
	Notify func(domainBot.StatusEvent)
}

// Bot wraps one whatsmeow session and implements domainBot.IBot.
type Bot struct {
	opts Options

	clientMu  sync.RWMutex
	client    *whatsmeow.Client
	container interface{ Close() error }
	handlerID uint32

	limiter  *rate.Limiter
	cache    *msgcache.Cache
	presence *chatpresence.Tracker

	connected     atomic.Bool
	announced     atomic.Bool
	pairRequested atomic.Bool
	startedAt     atomic.Int64
	lastReceived  atomic.Int64

	blockedMu sync.RWMutex
	blocked   map[string]struct{}

	stopJanitor context.CancelFunc
}

var _ domainBot.IBot = (*Bot)(nil)

func NewBot(opts Options) *Bot {
	perSecond := opts.Runtime.SendRatePerSecond
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	burst := opts.Runtime.SendBurst
	if burst <= 0 {
		burst = 1
	}

	return &Bot{
		opts:     opts,
		limiter:  rate.NewLimiter(limit, burst),
		cache:    msgcache.New(opts.Runtime.MessageCacheTTL, 0),
		presence: chatpresence.New(chatpresence.DefaultTTL),
		blocked:  make(map[string]struct{}),
	}
}

func (b *Bot) ID() string {
	return b.opts.Bot.ID
}

func (b *Bot) Prefix() string {
	return b.opts.Bot.Prefix
}

func (b *Bot) PhoneNumber() string {
	if b.opts.Bot.PhoneNumber != "" {
		return b.opts.Bot.PhoneNumber
	}
	return utils.UserPart(b.OwnJID())
}

// OwnJID is the bot's phone number JID without device suffix.
func (b *Bot) OwnJID() string {
	cli := b.getClient()
	if cli == nil || cli.Store == nil || cli.Store.ID == nil {
		if b.opts.Bot.PhoneNumber != "" {
			return utils.UserJID(b.opts.Bot.PhoneNumber)
		}
		return ""
	}
	return cli.Store.ID.ToNonAD().String()
}

// ownLID returns the bot's hidden user id, used by LID addressed groups.
func (b *Bot) ownLID() string {
	cli := b.getClient()
	if cli == nil || cli.Store == nil || cli.Store.LID.IsEmpty() {
		return ""
	}
	return cli.Store.LID.ToNonAD().String()
}

// isSelf reports whether jid (phone or LID form) is the bot itself.
func (b *Bot) isSelf(jid string) bool {
	if jid == "" {
		return false
	}
	if own := b.OwnJID(); own != "" && utils.SameUser(own, jid) {
		return true
	}
	lid := b.ownLID()
	return lid != "" && utils.SameUser(lid, jid)
}

func (b *Bot) IsConnected() bool {
	return b.connected.Load()
}

func (b *Bot) StartedAt() time.Time {
	if v := b.startedAt.Load(); v > 0 {
		return time.Unix(0, v)
	}
	return time.Time{}
}

func (b *Bot) LastMessageReceived() time.Time {
	if v := b.lastReceived.Load(); v > 0 {
		return time.Unix(0, v)
	}
	return time.Time{}
}

func (b *Bot) Community() domainBot.CommunityGroups {
	return b.opts.Community
}

func (b *Bot) IsBlocked(userID string) bool {
	user := utils.UserPart(userID)
	if user == "" {
		return false
	}
	b.blockedMu.RLock()
	defer b.blockedMu.RUnlock()
	_, ok := b.blocked[user]
	return ok
}

func (b *Bot) setBlocked(users []string) {
	set := make(map[string]struct{}, len(users))
	for _, u := range users {
		if p := utils.UserPart(u); p != "" {
			set[p] = struct{}{}
		}
	}
	b.blockedMu.Lock()
	b.blocked = set
	b.blockedMu.Unlock()
}

func (b *Bot) markBlocked(userID string, blocked bool) {
	user := utils.UserPart(userID)
	b.blockedMu.Lock()
	defer b.blockedMu.Unlock()
	if blocked {
		b.blocked[user] = struct{}{}
	} else {
		delete(b.blocked, user)
	}
}

func (b *Bot) getClient() *whatsmeow.Client {
	b.clientMu.RLock()
	defer b.clientMu.RUnlock()
	return b.client
}

func (b *Bot) notify(kind string, data map[string]any) {
	if b.opts.Notify == nil {
		return
	}
	b.opts.Notify(domainBot.StatusEvent{Type: kind, BotID: b.ID(), Data: data, Timestamp: time.Now()})
}

// parseJID accepts full JIDs and bare phone numbers.
func parseJID(id string) (types.JID, error) {
	id = strings.TrimSpace(id)
	if strings.Contains(id, "@") {
		return types.ParseJID(id)
	}
	return types.NewJID(utils.OnlyDigits(id), types.DefaultUserServer), nil
}
