package whatsapp

import (
	"testing"
	"time"

	"github.com/AzielCF/az-ravena/core/config"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func groupEvent(m *waE2E.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    types.NewJID("120363000000000001", types.GroupServer),
				Sender:  types.NewJID("5511999990000", types.DefaultUserServer),
				IsGroup: true,
			},
			ID:        "MSG1",
			PushName:  "Fulano",
			Timestamp: time.Unix(1700000000, 0),
		},
		Message: m,
	}
}

func TestFormatMessage_ExtendedTextWithQuote(t *testing.T) {
	evt := groupEvent(&waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String("!tts oi"),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:     proto.String("QUOTED"),
				Participant:  proto.String("5511888880000@s.whatsapp.net"),
				MentionedJID: []string{"5511777770000@s.whatsapp.net"},
			},
		},
	})

	msg := formatMessage("ravena", evt)
	require.NotNil(t, msg)
	assert.Equal(t, message.TypeText, msg.Type)
	assert.Equal(t, "!tts oi", msg.Text())
	assert.Equal(t, "120363000000000001@g.us", msg.Group)
	assert.Equal(t, "5511999990000@s.whatsapp.net", msg.Author)
	assert.Equal(t, "Fulano", msg.AuthorName)
	assert.Equal(t, "QUOTED", msg.QuotedID)
	assert.Equal(t, "5511888880000@s.whatsapp.net", msg.QuotedAuthor)
	assert.True(t, msg.Mentioned("5511777770000"))
	assert.Same(t, evt, msg.Raw)
}

func TestFormatMessage_MediaTypes(t *testing.T) {
	cases := []struct {
		name string
		m    *waE2E.Message
		want message.Type
	}{
		{"voice", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{PTT: proto.Bool(true)}}, message.TypeVoice},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, message.TypeAudio},
		{"sticker", &waE2E.Message{StickerMessage: &waE2E.StickerMessage{Mimetype: proto.String("image/webp")}}, message.TypeSticker},
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("legenda")}}, message.TypeImage},
		{"document", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{FileName: proto.String("a.pdf")}}, message.TypeDocument},
		{"unknown", &waE2E.Message{}, message.TypeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := formatMessage("ravena", groupEvent(tc.m))
			require.NotNil(t, msg)
			assert.Equal(t, tc.want, msg.Type)
		})
	}

	img := formatMessage("ravena", groupEvent(&waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("legenda")}}))
	assert.Equal(t, "legenda", img.Text())
}

func TestFormatMessage_NilPayload(t *testing.T) {
	assert.Nil(t, formatMessage("ravena", nil))
	assert.Nil(t, formatMessage("ravena", &events.Message{}))
}

func TestQuotedFromContext(t *testing.T) {
	parent := groupEvent(nil)
	ctxInfo := &waE2E.ContextInfo{
		StanzaID:      proto.String("Q1"),
		Participant:   proto.String("5511888880000@s.whatsapp.net"),
		QuotedMessage: &waE2E.Message{AudioMessage: &waE2E.AudioMessage{PTT: proto.Bool(true)}},
	}

	quoted := quotedFromContext("ravena", parent, ctxInfo)
	require.NotNil(t, quoted)
	assert.Equal(t, "Q1", quoted.ID)
	assert.Equal(t, message.TypeVoice, quoted.Type)
	assert.Equal(t, "5511888880000@s.whatsapp.net", quoted.Author)
	assert.Equal(t, parent.Info.Chat.String(), quoted.ChatID)

	assert.Nil(t, quotedFromContext("ravena", parent, &waE2E.ContextInfo{StanzaID: proto.String("Q2")}))
}

func TestDownloadableOf(t *testing.T) {
	d, mime, size := downloadableOf(&waE2E.Message{VideoMessage: &waE2E.VideoMessage{
		Mimetype:   proto.String("video/mp4"),
		FileLength: proto.Uint64(42),
	}})
	assert.NotNil(t, d)
	assert.Equal(t, "video/mp4", mime)
	assert.EqualValues(t, 42, size)

	d, _, _ = downloadableOf(&waE2E.Message{Conversation: proto.String("oi")})
	assert.Nil(t, d)
}

func TestInviteCode(t *testing.T) {
	assert.Equal(t, "AbC123", inviteCode("https://chat.whatsapp.com/AbC123"))
	assert.Equal(t, "AbC123", inviteCode("chat.whatsapp.com/AbC123?mode=r"))
	assert.Equal(t, "AbC123", inviteCode(" AbC123 "))
}

func TestKindOf(t *testing.T) {
	media := &message.Media{Data: []byte{1}, MimeType: "audio/ogg"}
	assert.Equal(t, message.TypeText, kindOf(message.TextContent("oi"), message.SendOptions{}))
	assert.Equal(t, message.TypeAudio, kindOf(message.MediaContent(media), message.SendOptions{}))
	assert.Equal(t, message.TypeVoice, kindOf(message.MediaContent(media), message.SendOptions{AsVoice: true}))
	assert.Equal(t, message.TypeSticker, kindOf(message.MediaContent(&message.Media{MimeType: "image/webp"}), message.SendOptions{AsSticker: true}))
	assert.Equal(t, message.TypeDocument, kindOf(message.MediaContent(&message.Media{MimeType: "application/pdf"}), message.SendOptions{}))
}

func TestParseJID(t *testing.T) {
	jid, err := parseJID("+55 (11) 99999-0000")
	require.NoError(t, err)
	assert.Equal(t, "5511999990000@s.whatsapp.net", jid.String())

	jid, err = parseJID("120363000000000001@g.us")
	require.NoError(t, err)
	assert.Equal(t, types.GroupServer, jid.Server)
}

func TestBot_BlockedSet(t *testing.T) {
	b := NewBot(Options{Bot: config.BotConfig{ID: "ravena", PhoneNumber: "5511000000000"}})
	b.setBlocked([]string{"5511999990000@s.whatsapp.net"})
	assert.True(t, b.IsBlocked("5511999990000@s.whatsapp.net"))
	assert.True(t, b.IsBlocked("5511999990000:3@s.whatsapp.net"))

	b.markBlocked("5511999990000@s.whatsapp.net", false)
	assert.False(t, b.IsBlocked("5511999990000@s.whatsapp.net"))

	assert.Equal(t, "5511000000000@s.whatsapp.net", b.OwnJID())
	assert.True(t, b.isSelf("5511000000000@s.whatsapp.net"))
	assert.False(t, b.IsConnected())
}

func TestBot_SafeModeSend(t *testing.T) {
	b := NewBot(Options{
		Bot:      config.BotConfig{ID: "ravena"},
		Whatsapp: config.WhatsappConfig{SafeMode: true},
	})
	id, err := b.SendMessage(t.Context(), "120363000000000001@g.us", message.TextContent("oi"), message.SendOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = b.SendMessage(t.Context(), "120363000000000001@g.us", message.TextContent("  "), message.SendOptions{})
	assert.Error(t, err)
}

func TestBot_SendReturnMessagesSkipsInvalid(t *testing.T) {
	b := NewBot(Options{
		Bot:      config.BotConfig{ID: "ravena"},
		Whatsapp: config.WhatsappConfig{SafeMode: true},
	})
	meta := map[string]string{}
	ids, err := b.SendReturnMessages(t.Context(),
		message.ReturnMessage{ChatID: "", Content: message.TextContent("sem chat")},
		message.ReturnMessage{ChatID: "1@g.us", Content: message.TextContent("ok"), Metadata: meta},
	)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.Equal(t, ids[0], meta["messageId"])
}

func TestManager_Registry(t *testing.T) {
	cfg := &config.Config{Bots: []config.BotConfig{{ID: "a"}, {ID: "b"}}}
	m := NewManager(cfg, nil, nil, nil)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID())

	_, ok := m.Get("b")
	assert.True(t, ok)
	_, ok = m.Get("c")
	assert.False(t, ok)

	assert.Error(t, m.RestartBot(t.Context(), "c", ""))
}
