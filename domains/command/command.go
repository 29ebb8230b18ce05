package command

import (
	"context"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/message"
)

const (
	CategoryGeneral    = "geral"
	CategorySpeech     = "áudio"
	CategoryFiles      = "arquivos"
	CategoryGroup      = "grupo"
	CategorySuperAdmin = "superadmin"
)

// Reactions are the emojis applied around a command execution. Trigger
// emojis let users run the command by reacting to a message.
type Reactions struct {
	Trigger []string
	Before  string
	After   string
	Error   string
}

// HasTrigger reports whether emoji triggers the command.
func (r Reactions) HasTrigger(emoji string) bool {
	emoji = normalizeEmoji(emoji)
	for _, t := range r.Trigger {
		if normalizeEmoji(t) == emoji {
			return true
		}
	}
	return false
}

// normalizeEmoji drops variation selectors so "⌛" and "⌛️" compare equal.
func normalizeEmoji(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\uFE0F", "")
}

type HandlerFunc func(ctx context.Context, req *Request) ([]message.ReturnMessage, error)

type Command struct {
	Name           string
	Aliases        []string
	Description    string
	Usage          string
	Category       string
	NeedsMedia     bool
	NeedsQuotedMsg bool
	AdminOnly      bool
	SuperAdminOnly bool
	GroupOnly      bool
	Hidden         bool
	Cooldown       time.Duration
	Reactions      Reactions
	Method         HandlerFunc
}

// Names returns the name followed by every alias, lowercased.
func (c *Command) Names() []string {
	names := make([]string, 0, 1+len(c.Aliases))
	names = append(names, strings.ToLower(c.Name))
	for _, a := range c.Aliases {
		names = append(names, strings.ToLower(a))
	}
	return names
}

// Request carries everything a command handler needs.
type Request struct {
	Bot       bot.IBot
	Message   *message.Message
	Group     *group.Group
	Command   string
	Args      []string
	ReactedBy string

	quoted     *message.Message
	quotedDone bool
}

func NewRequest(b bot.IBot, msg *message.Message, g *group.Group, name string, args []string) *Request {
	return &Request{Bot: b, Message: msg, Group: g, Command: name, Args: args}
}

// WithQuoted presets the quoted message, used when a reaction triggers the command.
func (r *Request) WithQuoted(q *message.Message) *Request {
	r.quoted = q
	r.quotedDone = true
	return r
}

// Quoted resolves the message this request replies to, or nil.
func (r *Request) Quoted(ctx context.Context) (*message.Message, error) {
	if r.quotedDone {
		return r.quoted, nil
	}
	r.quotedDone = true
	if r.Message == nil || r.Message.QuotedID == "" {
		return nil, nil
	}
	q, err := r.Bot.GetQuotedMessage(ctx, r.Message)
	if err != nil {
		return nil, err
	}
	r.quoted = q
	return q, nil
}

func (r *Request) ArgText() string {
	return strings.TrimSpace(strings.Join(r.Args, " "))
}

// Author is the user who asked for the command: the reactor when triggered by a reaction.
func (r *Request) Author() string {
	if r.ReactedBy != "" {
		return r.ReactedBy
	}
	if r.Message == nil {
		return ""
	}
	return r.Message.Author
}

// Reply builds a text reply quoting the origin message.
func (r *Request) Reply(text string) message.ReturnMessage {
	return message.Reply(r.Message, text)
}

// ICooldown answers whether a key may run again after the given interval.
type ICooldown interface {
	Allow(ctx context.Context, key string, every time.Duration) bool
}
