package message

import (
	"strings"
	"time"
)

type Type string

const (
	TypeText     Type = "text"
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeAudio    Type = "audio"
	TypeVoice    Type = "voice"
	TypeSticker  Type = "sticker"
	TypeDocument Type = "document"
	TypeLocation Type = "location"
	TypeContact  Type = "contact"
	TypeReaction Type = "reaction"
	TypeUnknown  Type = "unknown"
)

// HasMedia reports whether messages of this type carry a downloadable file.
func (t Type) HasMedia() bool {
	switch t {
	case TypeImage, TypeVideo, TypeAudio, TypeVoice, TypeSticker, TypeDocument:
		return true
	}
	return false
}

// IsAudible reports whether the media can be fed to ffmpeg as audio.
func (t Type) IsAudible() bool {
	return t == TypeAudio || t == TypeVoice || t == TypeVideo
}

// Message is the normalized form of an inbound WhatsApp message.
type Message struct {
	ID           string    `json:"id"`
	BotID        string    `json:"botId"`
	ChatID       string    `json:"chatId"`
	Group        string    `json:"group,omitempty"`
	Author       string    `json:"author"`
	AuthorName   string    `json:"authorName"`
	Type         Type      `json:"type"`
	Content      string    `json:"content,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	MimeType     string    `json:"mimeType,omitempty"`
	Mentions     []string  `json:"mentions,omitempty"`
	QuotedID     string    `json:"quotedId,omitempty"`
	QuotedAuthor string    `json:"quotedAuthor,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	FromMe       bool      `json:"fromMe"`

	// Raw keeps the library event so media can be downloaded lazily.
	Raw any `json:"-"`
}

// Text returns the text body for text messages and the caption otherwise.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	if m.Type == TypeText {
		return m.Content
	}
	return m.Caption
}

func (m *Message) IsGroup() bool {
	return m != nil && m.Group != ""
}

// Mentioned reports whether the user part of a JID is among the mentions.
func (m *Message) Mentioned(userPart string) bool {
	if m == nil || userPart == "" {
		return false
	}
	for _, jid := range m.Mentions {
		if strings.SplitN(strings.SplitN(jid, "@", 2)[0], ":", 2)[0] == userPart {
			return true
		}
	}
	return false
}

// Media is a downloaded or generated file.
type Media struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName,omitempty"`
}

// SendOptions tunes how an outgoing message is delivered.
type SendOptions struct {
	QuotedMessageID   string
	QuotedParticipant string
	AsVoice           bool
	AsSticker         bool
	AsDocument        bool
	Caption           string
	Mentions          []string
	LinkPreview       bool
}

// Content is either text or media.
type Content struct {
	Text  string
	Media *Media
}

func TextContent(text string) Content {
	return Content{Text: text}
}

func MediaContent(media *Media) Content {
	return Content{Media: media}
}

func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == "" && (c.Media == nil || len(c.Media.Data) == 0)
}

// ReturnMessage is what command handlers produce; the bot sends them in order.
type ReturnMessage struct {
	ChatID   string
	Content  Content
	Options  SendOptions
	Delay    time.Duration
	Reaction string
	Metadata map[string]string
}

func (r ReturnMessage) IsValid() bool {
	return r.ChatID != "" && !r.Content.IsEmpty()
}

// Reply builds a text ReturnMessage quoting msg.
func Reply(msg *Message, text string) ReturnMessage {
	return ReturnMessage{
		ChatID:  msg.ChatID,
		Content: TextContent(text),
		Options: SendOptions{QuotedMessageID: msg.ID, QuotedParticipant: msg.Author},
	}
}

// Text builds a plain text ReturnMessage.
func Text(chatID, text string) ReturnMessage {
	return ReturnMessage{ChatID: chatID, Content: TextContent(text)}
}
