package bot

import (
	"context"
	"time"

	"github.com/AzielCF/az-ravena/domains/message"
)

type Participant struct {
	JID          string `json:"jid"`
	Name         string `json:"name,omitempty"`
	IsAdmin      bool   `json:"isAdmin"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

type GroupInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Topic        string        `json:"topic,omitempty"`
	Owner        string        `json:"owner,omitempty"`
	Participants []Participant `json:"participants"`
}

// Admins returns the participants with admin or super admin rights.
func (g GroupInfo) Admins() []Participant {
	var out []Participant
	for _, p := range g.Participants {
		if p.IsAdmin || p.IsSuperAdmin {
			out = append(out, p)
		}
	}
	return out
}

// Members returns the participants without admin rights.
func (g GroupInfo) Members() []Participant {
	var out []Participant
	for _, p := range g.Participants {
		if !p.IsAdmin && !p.IsSuperAdmin {
			out = append(out, p)
		}
	}
	return out
}

// CommunityGroups are the chats where a bot publishes operational notices.
type CommunityGroups struct {
	Logs      string
	Invites   string
	Avisos    string
	Interacao string
}

// IBot is what the message pipeline and the commands need from a connected bot.
type IBot interface {
	ID() string
	Prefix() string
	PhoneNumber() string
	OwnJID() string
	IsConnected() bool
	StartedAt() time.Time
	LastMessageReceived() time.Time
	Community() CommunityGroups

	SendMessage(ctx context.Context, chatID string, content message.Content, opts message.SendOptions) (string, error)
	SendReturnMessages(ctx context.Context, msgs ...message.ReturnMessage) ([]string, error)
	React(ctx context.Context, msg *message.Message, emoji string) error
	DeleteMessage(ctx context.Context, msg *message.Message) error
	DownloadMedia(ctx context.Context, msg *message.Message) (*message.Media, error)
	GetQuotedMessage(ctx context.Context, msg *message.Message) (*message.Message, error)
	GetCachedMessage(chatID, messageID string) (*message.Message, bool)

	GetGroupInfo(ctx context.Context, groupID string) (GroupInfo, error)
	GetJoinedGroups(ctx context.Context) ([]GroupInfo, error)
	GetInviteInfo(ctx context.Context, code string) (GroupInfo, error)
	JoinGroupWithInvite(ctx context.Context, code string) (string, error)
	LeaveGroup(ctx context.Context, groupID string) error
	IsUserAdminInGroup(ctx context.Context, userID, groupID string) (bool, error)

	BlockContact(ctx context.Context, userID string) error
	UnblockContact(ctx context.Context, userID string) error
	IsBlocked(userID string) bool
	GetContactName(ctx context.Context, userID string) string
	SetProfilePicture(ctx context.Context, jpeg []byte) error
}

// IBotRegistry gives access to every bot managed by the process.
type IBotRegistry interface {
	Get(id string) (IBot, bool)
	List() []IBot
	RestartBot(ctx context.Context, id, reason string) error
}

// RestartRequest is the body of a dashboard restart.
type RestartRequest struct {
	BotID  string `json:"-"`
	Reason string `json:"reason"`
}

// Reaction is an emoji reaction some user applied to a message.
type Reaction struct {
	ChatID    string
	MessageID string
	SenderID  string
	Emoji     string
	Timestamp time.Time
}

// MembershipEvent describes users joining or leaving a group.
type MembershipEvent struct {
	GroupID   string
	GroupName string
	AuthorID  string
	UserIDs   []string
	// IncludesBot is set when the bot itself is among UserIDs.
	IncludesBot bool
}

// IEventHandler receives the translated events of every bot.
type IEventHandler interface {
	OnMessage(b IBot, msg *message.Message)
	OnReaction(b IBot, r Reaction)
	OnGroupJoin(b IBot, evt MembershipEvent)
	OnGroupLeave(b IBot, evt MembershipEvent)
}

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusQR           = "qr"
	StatusPairCode     = "pair_code"
	StatusRestart      = "restart"
	StatusFiltered     = "filtered"
	StatusError        = "error"
)

// StatusEvent is published to live dashboards.
type StatusEvent struct {
	Type      string         `json:"type"`
	BotID     string         `json:"bot_id"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
