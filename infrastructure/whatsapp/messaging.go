package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

var errNotConnected = errors.New("bot is not connected")

// SendMessage delivers text or media to chatID and returns the message id.
func (b *Bot) SendMessage(ctx context.Context, chatID string, content message.Content, opts message.SendOptions) (string, error) {
	if content.IsEmpty() {
		return "", fmt.Errorf("empty content for %s", chatID)
	}

	if b.opts.Whatsapp.SafeMode {
		preview := content.Text
		if content.Media != nil {
			preview = "[" + content.Media.MimeType + "] " + opts.Caption
		}
		logrus.Infof("[MODO SEGURO] Enviaria para %s: %s", chatID, preview)
		return "safe-" + uuid.NewString(), nil
	}

	cli := b.getClient()
	if cli == nil || !b.IsConnected() {
		return "", errNotConnected
	}

	jid, err := parseJID(chatID)
	if err != nil {
		return "", fmt.Errorf("invalid chat id %s: %w", chatID, err)
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}
	b.typeBeforeReply(ctx, cli, jid, opts.AsVoice)

	msg, err := b.buildMessage(ctx, cli, jid, content, opts)
	if err != nil {
		b.recordOutbound(jid.String(), string(kindOf(content, opts)), err)
		return "", err
	}

	resp, err := cli.SendMessage(ctx, jid, msg)
	if err != nil {
		b.recordOutbound(jid.String(), string(kindOf(content, opts)), err)
		return "", fmt.Errorf("failed to send message to %s: %w", chatID, err)
	}

	b.recordOutbound(jid.String(), string(kindOf(content, opts)), nil)
	if b.opts.Tracker != nil {
		b.opts.Tracker.TrackSent(b.ID(), jid.Server == types.GroupServer)
	}

	own, _ := types.ParseJID(b.OwnJID())
	sent := formatMessage(b.ID(), &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:     jid,
				Sender:   own,
				IsFromMe: true,
				IsGroup:  jid.Server == types.GroupServer,
			},
			ID:        resp.ID,
			Timestamp: resp.Timestamp,
		},
		Message: msg,
	})
	b.cache.Add(sent)

	return resp.ID, nil
}

func (b *Bot) recordOutbound(chatID, kind string, err error) {
	e := botmonitor.Event{
		BotID:  b.ID(),
		ChatID: chatID,
		Stage:  botmonitor.StageOutbound,
		Kind:   kind,
		Status: botmonitor.StatusOK,
	}
	if err != nil {
		e.Status = botmonitor.StatusError
		e.Error = err.Error()
	}
	botmonitor.Record(e)
}

func kindOf(content message.Content, opts message.SendOptions) message.Type {
	if content.Media == nil {
		return message.TypeText
	}
	switch {
	case opts.AsSticker:
		return message.TypeSticker
	case opts.AsDocument:
		return message.TypeDocument
	case opts.AsVoice:
		return message.TypeVoice
	}
	mime := content.Media.MimeType
	switch {
	case strings.HasPrefix(mime, "image/"):
		return message.TypeImage
	case strings.HasPrefix(mime, "video/"):
		return message.TypeVideo
	case strings.HasPrefix(mime, "audio/"):
		return message.TypeAudio
	}
	return message.TypeDocument
}

func (b *Bot) buildMessage(ctx context.Context, cli *whatsmeow.Client, jid types.JID, content message.Content, opts message.SendOptions) (*waE2E.Message, error) {
	ctxInfo := b.contextInfoFor(jid, opts)

	if content.Media == nil {
		return &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text:        proto.String(content.Text),
				ContextInfo: ctxInfo,
			},
		}, nil
	}

	media := content.Media
	kind := kindOf(content, opts)

	mType := whatsmeow.MediaDocument
	switch kind {
	case message.TypeImage, message.TypeSticker:
		mType = whatsmeow.MediaImage
	case message.TypeVideo:
		mType = whatsmeow.MediaVideo
	case message.TypeAudio, message.TypeVoice:
		mType = whatsmeow.MediaAudio
	}

	uploaded, err := cli.Upload(ctx, media.Data, mType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	caption := opts.Caption
	if caption == "" {
		caption = content.Text
	}

	msg := &waE2E.Message{}
	switch kind {
	case message.TypeImage:
		msg.ImageMessage = &waE2E.ImageMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(media.MimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			Caption:       proto.String(caption),
			ContextInfo:   ctxInfo,
		}
	case message.TypeVideo:
		msg.VideoMessage = &waE2E.VideoMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(media.MimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			Caption:       proto.String(caption),
			ContextInfo:   ctxInfo,
		}
	case message.TypeAudio, message.TypeVoice:
		mime := media.MimeType
		if kind == message.TypeVoice {
			mime = "audio/ogg; codecs=opus"
		}
		msg.AudioMessage = &waE2E.AudioMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(mime),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			PTT:           proto.Bool(kind == message.TypeVoice),
			ContextInfo:   ctxInfo,
		}
	case message.TypeSticker:
		msg.StickerMessage = &waE2E.StickerMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String("image/webp"),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			ContextInfo:   ctxInfo,
		}
	default:
		name := media.FileName
		if name == "" {
			name = "arquivo"
		}
		msg.DocumentMessage = &waE2E.DocumentMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(media.MimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			Caption:       proto.String(caption),
			FileName:      proto.String(name),
			ContextInfo:   ctxInfo,
		}
	}
	return msg, nil
}

// contextInfoFor builds the quote and mention block, nil when neither is set.
func (b *Bot) contextInfoFor(chat types.JID, opts message.SendOptions) *waE2E.ContextInfo {
	if opts.QuotedMessageID == "" && len(opts.Mentions) == 0 {
		return nil
	}

	ctxInfo := &waE2E.ContextInfo{}
	for _, m := range opts.Mentions {
		if jid, err := parseJID(m); err == nil {
			ctxInfo.MentionedJID = append(ctxInfo.MentionedJID, jid.String())
		}
	}

	if opts.QuotedMessageID != "" {
		ctxInfo.StanzaID = proto.String(opts.QuotedMessageID)
		participant := opts.QuotedParticipant
		quoted := &waE2E.Message{Conversation: proto.String("")}
		if cached, ok := b.cache.Get(chat.String(), opts.QuotedMessageID); ok {
			if participant == "" {
				participant = cached.Author
			}
			if raw, ok := cached.Raw.(*events.Message); ok && raw.Message != nil {
				quoted = raw.Message
			}
		}
		if participant == "" {
			participant = chat.String()
		}
		ctxInfo.Participant = proto.String(participant)
		ctxInfo.QuotedMessage = quoted
	}
	return ctxInfo
}

// SendReturnMessages sends each valid message in order and reports the ids.
// A failure stops the batch.
func (b *Bot) SendReturnMessages(ctx context.Context, msgs ...message.ReturnMessage) ([]string, error) {
	ids := make([]string, 0, len(msgs))
	for _, rm := range msgs {
		if !rm.IsValid() {
			continue
		}
		if rm.Delay > 0 {
			select {
			case <-ctx.Done():
				return ids, ctx.Err()
			case <-time.After(rm.Delay):
			}
		}

		id, err := b.SendMessage(ctx, rm.ChatID, rm.Content, rm.Options)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)

		if rm.Metadata != nil {
			rm.Metadata["messageId"] = id
		}
		if rm.Reaction != "" {
			target := &message.Message{ID: id, ChatID: rm.ChatID, FromMe: true, Author: b.OwnJID()}
			if err := b.React(ctx, target, rm.Reaction); err != nil {
				logrus.WithError(err).Warnf("[BOT] %s failed to react on sent message", b.ID())
			}
		}
	}
	return ids, nil
}

// React sets emoji as the bot's reaction to msg. An empty emoji removes it.
func (b *Bot) React(ctx context.Context, msg *message.Message, emoji string) error {
	if msg == nil {
		return nil
	}
	if b.opts.Whatsapp.SafeMode {
		logrus.Infof("[MODO SEGURO] Reagiria com %s em %s", emoji, msg.ID)
		return nil
	}
	cli := b.getClient()
	if cli == nil || !b.IsConnected() {
		return errNotConnected
	}
	chat, err := parseJID(msg.ChatID)
	if err != nil {
		return err
	}

	key := &waCommon.MessageKey{
		RemoteJID: proto.String(chat.String()),
		FromMe:    proto.Bool(msg.FromMe),
		ID:        proto.String(msg.ID),
	}
	if chat.Server == types.GroupServer && msg.Author != "" && !msg.FromMe {
		key.Participant = proto.String(msg.Author)
	}

	reaction := &waE2E.Message{
		ReactionMessage: &waE2E.ReactionMessage{
			Key:               key,
			Text:              proto.String(emoji),
			SenderTimestampMS: proto.Int64(time.Now().UnixMilli()),
		},
	}
	_, err = cli.SendMessage(ctx, chat, reaction)
	return err
}

// DeleteMessage revokes msg for everyone. Others' messages require admin rights.
func (b *Bot) DeleteMessage(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return nil
	}
	if b.opts.Whatsapp.SafeMode {
		logrus.Infof("[MODO SEGURO] Apagaria %s em %s", msg.ID, msg.ChatID)
		return nil
	}
	cli := b.getClient()
	if cli == nil || !b.IsConnected() {
		return errNotConnected
	}
	chat, err := parseJID(msg.ChatID)
	if err != nil {
		return err
	}

	sender := types.EmptyJID
	if !msg.FromMe && msg.Author != "" && !b.isSelf(msg.Author) {
		if s, err := types.ParseJID(msg.Author); err == nil {
			sender = s
		}
	}
	_, err = cli.SendMessage(ctx, chat, cli.BuildRevoke(chat, sender, msg.ID))
	return err
}

// DownloadMedia fetches and decrypts the media of msg.
func (b *Bot) DownloadMedia(ctx context.Context, msg *message.Message) (*message.Media, error) {
	if msg == nil {
		return nil, fmt.Errorf("no message")
	}
	raw, ok := msg.Raw.(*events.Message)
	if !ok || raw.Message == nil {
		return nil, fmt.Errorf("message %s has no media payload", msg.ID)
	}
	downloadable, mime, size := downloadableOf(raw.Message)
	if downloadable == nil {
		return nil, fmt.Errorf("message %s has no media", msg.ID)
	}
	if limit := b.opts.Whatsapp.MaxDownloadSize; limit > 0 && size > uint64(limit) {
		return nil, fmt.Errorf("media too large: %d bytes", size)
	}

	cli := b.getClient()
	if cli == nil {
		return nil, errNotConnected
	}
	data, err := cli.Download(ctx, downloadable)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	return &message.Media{Data: data, MimeType: mime, FileName: fileNameOf(raw.Message)}, nil
}

// GetQuotedMessage returns the message msg replies to, or nil when there is none.
func (b *Bot) GetQuotedMessage(_ context.Context, msg *message.Message) (*message.Message, error) {
	if msg == nil || msg.QuotedID == "" {
		return nil, nil
	}
	if cached, ok := b.cache.Get(msg.ChatID, msg.QuotedID); ok {
		return cached, nil
	}
	raw, ok := msg.Raw.(*events.Message)
	if !ok {
		return nil, nil
	}
	quoted := quotedFromContext(b.ID(), raw, contextInfoOf(raw.Message))
	if quoted == nil {
		return nil, nil
	}
	b.resolveIdentities(quoted)
	quoted.FromMe = b.isSelf(quoted.Author)
	return quoted, nil
}

func (b *Bot) GetCachedMessage(chatID, messageID string) (*message.Message, bool) {
	return b.cache.Get(chatID, messageID)
}

// typeBeforeReply waits for the chat to stop typing and shows the bot as
// composing for the configured reply delay. Without a delay it is a no-op.
func (b *Bot) typeBeforeReply(ctx context.Context, cli *whatsmeow.Client, jid types.JID, voice bool) {
	delay := b.opts.Runtime.ReplyDelay
	if delay <= 0 {
		return
	}
	b.presence.WaitIdle(ctx, jid.String(), 2*delay)

	media := types.ChatPresenceMediaText
	if voice {
		media = types.ChatPresenceMediaAudio
	}
	if err := cli.SendChatPresence(ctx, jid, types.ChatPresenceComposing, media); err != nil {
		logrus.Debugf("[SEND] %s could not send presence to %s: %v", b.ID(), jid, err)
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	_ = cli.SendChatPresence(ctx, jid, types.ChatPresencePaused, types.ChatPresenceMediaText)
}
