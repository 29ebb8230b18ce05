// Package eventhandler routes the events of every bot through the group
// filters and into the command handlers.
package eventhandler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/history"
	domainInvite "github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/domains/speech"
	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	"github.com/AzielCF/az-ravena/pkg/msgworker"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/AzielCF/az-ravena/usecase/commandhandler"
	"github.com/AzielCF/az-ravena/usecase/mention"
	"github.com/sirupsen/logrus"
)

// Dispatcher queues pipeline jobs; the msgworker pool implements it.
type Dispatcher interface {
	TryDispatch(job msgworker.MessageJob) bool
}

type InviteProcessor interface {
	ProcessMessage(ctx context.Context, b domainBot.IBot, msg *message.Message) (bool, error)
	ProcessFollowUp(ctx context.Context, b domainBot.IBot, msg *message.Message) (bool, error)
}

type AutoTranscriber interface {
	AutoSTT(ctx context.Context, b domainBot.IBot, msg *message.Message)
}

type MentionResponder interface {
	Handle(ctx context.Context, b domainBot.IBot, msg *message.Message, prefix string) error
}

// Deps are the collaborators of the handler. Only Groups and Commands are
// required.
type Deps struct {
	Groups   group.IGroupRepository
	Invites  domainInvite.IInviteRepository
	History  history.IHistoryStore
	Commands *commandhandler.Handler
	Speech   AutoTranscriber
	Invite   InviteProcessor
	Mention  MentionResponder
	NSFW     speech.INSFWClassifier
	LLM      llm.ILLMService
	// Pool runs the jobs; without it events are processed inline.
	Pool   Dispatcher
	Notify func(domainBot.StatusEvent)
}

type EventHandler struct {
	deps Deps

	mu     sync.Mutex
	groups map[string]*group.Group

	// groupLocks serialises the work on one group across bots, since they
	// share the cached *group.Group.
	locksMu    sync.Mutex
	groupLocks map[string]*sync.Mutex
}

var _ domainBot.IEventHandler = (*EventHandler)(nil)

func New(deps Deps) *EventHandler {
	return &EventHandler{deps: deps, groups: make(map[string]*group.Group), groupLocks: make(map[string]*sync.Mutex)}
}

// lockGroup holds the group's lock until the returned func is called. Other
// chats get a no-op.
func (h *EventHandler) lockGroup(chatID string) func() {
	if !utils.IsGroupJID(chatID) {
		return func() {}
	}
	h.locksMu.Lock()
	l, ok := h.groupLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		h.groupLocks[chatID] = l
	}
	h.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

func (h *EventHandler) OnMessage(b domainBot.IBot, msg *message.Message) {
	h.dispatch(b.ID(), msg.ChatID, "message", func(ctx context.Context) error {
		return h.ProcessMessage(ctx, b, msg)
	})
}

func (h *EventHandler) OnReaction(b domainBot.IBot, r domainBot.Reaction) {
	h.dispatch(b.ID(), r.ChatID, "reaction", func(ctx context.Context) error {
		defer h.lockGroup(r.ChatID)()
		var g *group.Group
		if utils.IsGroupJID(r.ChatID) {
			var err error
			if g, err = h.GetOrCreateGroup(ctx, r.ChatID, ""); err != nil {
				return err
			}
			if g.Paused {
				return nil
			}
		}
		h.deps.Commands.HandleReaction(ctx, b, r, g)
		return nil
	})
}

func (h *EventHandler) OnGroupJoin(b domainBot.IBot, evt domainBot.MembershipEvent) {
	h.dispatch(b.ID(), evt.GroupID, "group_join", func(ctx context.Context) error {
		return h.ProcessGroupJoin(ctx, b, evt)
	})
}

func (h *EventHandler) OnGroupLeave(b domainBot.IBot, evt domainBot.MembershipEvent) {
	h.dispatch(b.ID(), evt.GroupID, "group_leave", func(ctx context.Context) error {
		return h.ProcessGroupLeave(ctx, b, evt)
	})
}

// dispatch hands fn to the pool keyed by bot and chat so each chat is
// processed in arrival order. Group jobs of every bot share one worker.
func (h *EventHandler) dispatch(botID, chatID, kind string, fn func(ctx context.Context) error) {
	if h.deps.Pool == nil {
		if err := fn(context.Background()); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"bot_id": botID, "chat": chatID}).Errorf("[EVENT] %s failed", kind)
		}
		return
	}
	job := msgworker.MessageJob{BotID: botID, ChatID: chatID, Kind: kind, Handler: fn}
	if utils.IsGroupJID(chatID) {
		job.ShardKey = chatID
	}
	if !h.deps.Pool.TryDispatch(job) {
		logrus.WithFields(logrus.Fields{"bot_id": botID, "chat": chatID}).Warnf("[EVENT] Dropped %s, pipeline queue is full", kind)
	}
}

// GetOrCreateGroup returns the cached group, loading or creating it on first use.
func (h *EventHandler) GetOrCreateGroup(ctx context.Context, id, name string) (*group.Group, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if g, ok := h.groups[id]; ok {
		return g, nil
	}

	g, err := h.deps.Groups.GetGroup(ctx, id)
	var notFound pkgError.NotFoundError
	switch {
	case err == nil:
	case errors.As(err, &notFound):
		if name == "" {
			name = utils.DefaultGroupName(id)
		}
		g = group.New(id, name)
		if err := h.deps.Groups.SaveGroup(ctx, g); err != nil {
			return nil, err
		}
		logrus.Infof("[EVENT] Created config for group %s (%s)", name, id)
	default:
		return nil, err
	}

	h.groups[id] = g
	return g, nil
}

// Forget drops a group from the cache so the next event reloads it.
func (h *EventHandler) Forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, id)
}

// ProcessMessage runs one inbound message through the pipeline.
func (h *EventHandler) ProcessMessage(ctx context.Context, b domainBot.IBot, msg *message.Message) error {
	if !msg.IsGroup() {
		return h.processPrivate(ctx, b, msg)
	}
	defer h.lockGroup(msg.ChatID)()

	g, err := h.GetOrCreateGroup(ctx, msg.ChatID, "")
	if err != nil {
		return err
	}
	h.remember(ctx, msg)

	prefix := g.EffectivePrefix(b.Prefix())
	text := strings.TrimSpace(msg.Text())

	if g.Paused && !strings.HasPrefix(strings.ToLower(text), strings.ToLower(prefix+"g-pausar")) {
		return nil
	}
	if isIgnored(g, msg.Author) {
		logrus.Debugf("[EVENT] Ignoring %s in %s", msg.Author, g.Name)
		return nil
	}
	if isMuted(g, text) {
		return nil
	}
	if h.applyFilters(ctx, b, msg, g) {
		return nil
	}
	return h.route(ctx, b, msg, g, prefix, text)
}

func (h *EventHandler) processPrivate(ctx context.Context, b domainBot.IBot, msg *message.Message) error {
	if h.deps.Invite != nil {
		if handled, err := h.deps.Invite.ProcessMessage(ctx, b, msg); handled {
			return err
		}
		if handled, err := h.deps.Invite.ProcessFollowUp(ctx, b, msg); handled {
			return err
		}
	}
	return h.route(ctx, b, msg, nil, b.Prefix(), strings.TrimSpace(msg.Text()))
}

// route decides between the mention answer, commands and the non-command path.
func (h *EventHandler) route(ctx context.Context, b domainBot.IBot, msg *message.Message, g *group.Group, prefix, text string) error {
	if text == "" {
		return h.nonCommand(ctx, b, msg, g, text)
	}

	if h.deps.Mention != nil && mention.IsMentioned(b, msg) {
		return h.deps.Mention.Handle(ctx, b, msg, prefix)
	}
	if prefix != "" && !strings.HasPrefix(text, prefix) {
		return h.nonCommand(ctx, b, msg, g, text)
	}

	commandText := strings.TrimSpace(strings.TrimPrefix(text, prefix))
	if commandText == "" {
		return nil
	}
	return h.deps.Commands.Handle(ctx, b, msg, commandText, g)
}

func (h *EventHandler) nonCommand(ctx context.Context, b domainBot.IBot, msg *message.Message, g *group.Group, text string) error {
	if (msg.Type == message.TypeVoice || msg.Type == message.TypeAudio) && h.deps.Speech != nil && (g == nil || g.AutoSTT) {
		h.deps.Speech.AutoSTT(ctx, b, msg)
	}
	if g != nil && text != "" {
		h.deps.Commands.CheckAutoTriggered(ctx, b, msg, text, g)
	}
	return nil
}

// remember stores group texts for summaries.
func (h *EventHandler) remember(ctx context.Context, msg *message.Message) {
	if h.deps.History == nil || strings.TrimSpace(msg.Text()) == "" {
		return
	}
	entry := history.Entry{
		AuthorID:   msg.Author,
		AuthorName: msg.AuthorName,
		Text:       msg.Text(),
		Timestamp:  msg.Timestamp,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := h.deps.History.Append(ctx, msg.ChatID, entry); err != nil {
		logrus.WithError(err).Debug("[EVENT] History append failed")
	}
}

func isIgnored(g *group.Group, author string) bool {
	for _, n := range g.IgnoredNumbers {
		if len(n) >= 8 && strings.Contains(author, n) {
			return true
		}
	}
	return false
}

func isMuted(g *group.Group, text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, s := range g.MutedStrings {
		if s != "" && strings.HasPrefix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
