package whatsapp

import (
	"strings"

	"github.com/AzielCF/az-ravena/domains/message"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// formatMessage turns a whatsmeow message event into the pipeline Message.
// The raw event is kept so media and quotes can be resolved later.
func formatMessage(botID string, evt *events.Message) *message.Message {
	if evt == nil || evt.Message == nil {
		return nil
	}

	chat := evt.Info.Chat.ToNonAD().String()
	msg := &message.Message{
		ID:         evt.Info.ID,
		BotID:      botID,
		ChatID:     chat,
		Author:     evt.Info.Sender.ToNonAD().String(),
		AuthorName: evt.Info.PushName,
		Timestamp:  evt.Info.Timestamp,
		FromMe:     evt.Info.IsFromMe,
		Raw:        evt,
	}
	if evt.Info.IsGroup {
		msg.Group = chat
	}

	fillContent(msg, evt.Message)
	return msg
}

// fillContent sets type, body and quote fields from the protobuf payload.
func fillContent(msg *message.Message, m *waE2E.Message) {
	var ctxInfo *waE2E.ContextInfo

	switch {
	case m.GetConversation() != "":
		msg.Type = message.TypeText
		msg.Content = m.GetConversation()
	case m.GetExtendedTextMessage() != nil:
		ext := m.GetExtendedTextMessage()
		msg.Type = message.TypeText
		msg.Content = ext.GetText()
		ctxInfo = ext.GetContextInfo()
	case m.GetImageMessage() != nil:
		img := m.GetImageMessage()
		msg.Type = message.TypeImage
		msg.Caption = img.GetCaption()
		msg.MimeType = img.GetMimetype()
		ctxInfo = img.GetContextInfo()
	case m.GetVideoMessage() != nil:
		video := m.GetVideoMessage()
		msg.Type = message.TypeVideo
		msg.Caption = video.GetCaption()
		msg.MimeType = video.GetMimetype()
		ctxInfo = video.GetContextInfo()
	case m.GetAudioMessage() != nil:
		audio := m.GetAudioMessage()
		msg.Type = message.TypeAudio
		if audio.GetPTT() {
			msg.Type = message.TypeVoice
		}
		msg.MimeType = audio.GetMimetype()
		ctxInfo = audio.GetContextInfo()
	case m.GetStickerMessage() != nil:
		sticker := m.GetStickerMessage()
		msg.Type = message.TypeSticker
		msg.MimeType = sticker.GetMimetype()
		ctxInfo = sticker.GetContextInfo()
	case m.GetDocumentMessage() != nil:
		doc := m.GetDocumentMessage()
		msg.Type = message.TypeDocument
		msg.Caption = doc.GetCaption()
		msg.Content = doc.GetFileName()
		msg.MimeType = doc.GetMimetype()
		ctxInfo = doc.GetContextInfo()
	case m.GetLocationMessage() != nil:
		loc := m.GetLocationMessage()
		msg.Type = message.TypeLocation
		msg.Content = strings.TrimSpace(loc.GetName() + " " + loc.GetAddress())
		ctxInfo = loc.GetContextInfo()
	case m.GetContactMessage() != nil:
		contact := m.GetContactMessage()
		msg.Type = message.TypeContact
		msg.Content = contact.GetDisplayName()
		ctxInfo = contact.GetContextInfo()
	case m.GetReactionMessage() != nil:
		msg.Type = message.TypeReaction
		msg.Content = m.GetReactionMessage().GetText()
	default:
		msg.Type = message.TypeUnknown
	}

	if ctxInfo != nil {
		msg.Mentions = ctxInfo.GetMentionedJID()
		msg.QuotedID = ctxInfo.GetStanzaID()
		msg.QuotedAuthor = ctxInfo.GetParticipant()
	}
}

// contextInfoOf returns the ContextInfo of whichever sub message is set.
func contextInfoOf(m *waE2E.Message) *waE2E.ContextInfo {
	switch {
	case m == nil:
		return nil
	case m.GetExtendedTextMessage() != nil:
		return m.GetExtendedTextMessage().GetContextInfo()
	case m.GetImageMessage() != nil:
		return m.GetImageMessage().GetContextInfo()
	case m.GetVideoMessage() != nil:
		return m.GetVideoMessage().GetContextInfo()
	case m.GetAudioMessage() != nil:
		return m.GetAudioMessage().GetContextInfo()
	case m.GetStickerMessage() != nil:
		return m.GetStickerMessage().GetContextInfo()
	case m.GetDocumentMessage() != nil:
		return m.GetDocumentMessage().GetContextInfo()
	}
	return nil
}

// quotedFromContext rebuilds the quoted message carried inside ctxInfo, for
// quotes of messages that are no longer (or never were) in the cache.
func quotedFromContext(botID string, parent *events.Message, ctxInfo *waE2E.ContextInfo) *message.Message {
	if ctxInfo == nil || ctxInfo.GetQuotedMessage() == nil || ctxInfo.GetStanzaID() == "" {
		return nil
	}

	sender, _ := types.ParseJID(ctxInfo.GetParticipant())
	if sender.IsEmpty() {
		sender = parent.Info.Chat
	}

	evt := &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    parent.Info.Chat,
				Sender:  sender,
				IsGroup: parent.Info.IsGroup,
			},
			ID:        ctxInfo.GetStanzaID(),
			Timestamp: parent.Info.Timestamp,
		},
		Message: ctxInfo.GetQuotedMessage(),
	}
	return formatMessage(botID, evt)
}

// downloadableOf returns the media payload of a message, with its declared size.
func downloadableOf(m *waE2E.Message) (whatsmeow.DownloadableMessage, string, uint64) {
	switch {
	case m == nil:
		return nil, "", 0
	case m.GetImageMessage() != nil:
		img := m.GetImageMessage()
		return img, img.GetMimetype(), img.GetFileLength()
	case m.GetVideoMessage() != nil:
		video := m.GetVideoMessage()
		return video, video.GetMimetype(), video.GetFileLength()
	case m.GetAudioMessage() != nil:
		audio := m.GetAudioMessage()
		return audio, audio.GetMimetype(), audio.GetFileLength()
	case m.GetStickerMessage() != nil:
		sticker := m.GetStickerMessage()
		return sticker, sticker.GetMimetype(), sticker.GetFileLength()
	case m.GetDocumentMessage() != nil:
		doc := m.GetDocumentMessage()
		return doc, doc.GetMimetype(), doc.GetFileLength()
	}
	return nil, "", 0
}

func fileNameOf(m *waE2E.Message) string {
	if doc := m.GetDocumentMessage(); doc != nil {
		return doc.GetFileName()
	}
	return ""
}
