// Package bottest provides an in-memory IBot for handler tests.
package bottest

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/utils"
)

// Bot records every outgoing action instead of talking to WhatsApp.
type Bot struct {
	mu sync.Mutex

	BotID     string
	BotPrefix string
	Phone     string
	Groups    map[string]domainBot.GroupInfo
	Invites   map[string]domainBot.GroupInfo
	Media     map[string]*message.Media
	Messages  map[string]*message.Message
	Names     map[string]string
	Comm      domainBot.CommunityGroups
	Started   time.Time
	Connected bool
	SendErr   error

	Sent      []message.ReturnMessage
	Reactions []Reaction
	Deleted   []string
	Joined    []string
	Left      []string
	Blocked   map[string]bool
	Picture   []byte
}

type Reaction struct {
	MessageID string
	Emoji     string
}

var _ domainBot.IBot = (*Bot)(nil)

func New(id string) *Bot {
	return &Bot{
		BotID:     id,
		BotPrefix: "!",
		Phone:     "5511000000000",
		Groups:    map[string]domainBot.GroupInfo{},
		Invites:   map[string]domainBot.GroupInfo{},
		Media:     map[string]*message.Media{},
		Messages:  map[string]*message.Message{},
		Names:     map[string]string{},
		Blocked:   map[string]bool{},
		Started:   time.Now().Add(-time.Hour),
		Connected: true,
	}
}

func (b *Bot) ID() string                           { return b.BotID }
func (b *Bot) Prefix() string                       { return b.BotPrefix }
func (b *Bot) PhoneNumber() string                  { return b.Phone }
func (b *Bot) OwnJID() string                       { return utils.UserJID(b.Phone) }
func (b *Bot) IsConnected() bool                    { return b.Connected }
func (b *Bot) StartedAt() time.Time                 { return b.Started }
func (b *Bot) LastMessageReceived() time.Time       { return time.Time{} }
func (b *Bot) Community() domainBot.CommunityGroups { return b.Comm }
func (b *Bot) GetContactName(_ context.Context, id string) string {
	if n, ok := b.Names[id]; ok {
		return n
	}
	return utils.UserPart(id)
}

func (b *Bot) SendMessage(ctx context.Context, chatID string, content message.Content, opts message.SendOptions) (string, error) {
	ids, err := b.SendReturnMessages(ctx, message.ReturnMessage{ChatID: chatID, Content: content, Options: opts})
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

func (b *Bot) SendReturnMessages(_ context.Context, msgs ...message.ReturnMessage) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return nil, b.SendErr
	}
	var ids []string
	for _, m := range msgs {
		if !m.IsValid() {
			continue
		}
		b.Sent = append(b.Sent, m)
		id := fmt.Sprintf("SENT%d", len(b.Sent))
		ids = append(ids, id)
		if m.Reaction != "" {
			b.Reactions = append(b.Reactions, Reaction{MessageID: id, Emoji: m.Reaction})
		}
	}
	return ids, nil
}

func (b *Bot) React(_ context.Context, msg *message.Message, emoji string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Reactions = append(b.Reactions, Reaction{MessageID: msg.ID, Emoji: emoji})
	return nil
}

func (b *Bot) DeleteMessage(_ context.Context, msg *message.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Deleted = append(b.Deleted, msg.ID)
	return nil
}

func (b *Bot) DownloadMedia(_ context.Context, msg *message.Message) (*message.Media, error) {
	if m, ok := b.Media[msg.ID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no media for %s", msg.ID)
}

func (b *Bot) GetQuotedMessage(_ context.Context, msg *message.Message) (*message.Message, error) {
	if msg.QuotedID == "" {
		return nil, nil
	}
	return b.Messages[msg.QuotedID], nil
}

func (b *Bot) GetCachedMessage(_, messageID string) (*message.Message, bool) {
	m, ok := b.Messages[messageID]
	return m, ok
}

func (b *Bot) GetGroupInfo(_ context.Context, groupID string) (domainBot.GroupInfo, error) {
	g, ok := b.Groups[groupID]
	if !ok {
		return domainBot.GroupInfo{}, fmt.Errorf("group %s not found", groupID)
	}
	return g, nil
}

func (b *Bot) GetJoinedGroups(_ context.Context) ([]domainBot.GroupInfo, error) {
	out := make([]domainBot.GroupInfo, 0, len(b.Groups))
	for _, g := range b.Groups {
		out = append(out, g)
	}
	return out, nil
}

func (b *Bot) GetInviteInfo(_ context.Context, code string) (domainBot.GroupInfo, error) {
	g, ok := b.Invites[code]
	if !ok {
		return domainBot.GroupInfo{}, fmt.Errorf("invalid invite %s", code)
	}
	return g, nil
}

func (b *Bot) JoinGroupWithInvite(_ context.Context, code string) (string, error) {
	g, ok := b.Invites[code]
	if !ok {
		return "", fmt.Errorf("invalid invite %s", code)
	}
	b.mu.Lock()
	b.Joined = append(b.Joined, code)
	b.mu.Unlock()
	return g.ID, nil
}

func (b *Bot) LeaveGroup(_ context.Context, groupID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Left = append(b.Left, groupID)
	return nil
}

func (b *Bot) IsUserAdminInGroup(ctx context.Context, userID, groupID string) (bool, error) {
	g, err := b.GetGroupInfo(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, p := range g.Admins() {
		if utils.SameUser(p.JID, userID) {
			return true, nil
		}
	}
	return false, nil
}

func (b *Bot) BlockContact(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Blocked[utils.UserPart(userID)] = true
	return nil
}

func (b *Bot) UnblockContact(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Blocked, utils.UserPart(userID))
	return nil
}

func (b *Bot) IsBlocked(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Blocked[utils.UserPart(userID)]
}

func (b *Bot) SetProfilePicture(_ context.Context, jpeg []byte) error {
	b.Picture = jpeg
	return nil
}

// Texts returns the text of every sent message, in order.
func (b *Bot) Texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.Sent))
	for _, m := range b.Sent {
		out = append(out, m.Content.Text)
	}
	return out
}

// LastText returns the text of the most recent sent message.
func (b *Bot) LastText() string {
	texts := b.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// Emojis returns the reactions applied so far.
func (b *Bot) Emojis() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.Reactions))
	for _, r := range b.Reactions {
		out = append(out, r.Emoji)
	}
	return out
}

// GroupMessage builds an inbound text message in groupID.
func GroupMessage(id, groupID, author, text string) *message.Message {
	return &message.Message{
		ID:         id,
		ChatID:     groupID,
		Group:      groupID,
		Author:     utils.UserJID(author),
		AuthorName: "Fulano",
		Type:       message.TypeText,
		Content:    text,
		Timestamp:  time.Now(),
	}
}

// PrivateMessage builds an inbound private text message.
func PrivateMessage(id, author, text string) *message.Message {
	jid := utils.UserJID(author)
	return &message.Message{
		ID:         id,
		ChatID:     jid,
		Author:     jid,
		AuthorName: "Fulano",
		Type:       message.TypeText,
		Content:    text,
		Timestamp:  time.Now(),
	}
}
