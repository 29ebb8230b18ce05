package whatsapp

import (
	"context"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// handleEvent translates whatsmeow events into pipeline calls.
func (b *Bot) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.QR:
		b.onQR(v.Codes)
	case *events.PairSuccess:
		logrus.Infof("[BOT] %s paired as %s", b.ID(), v.ID.String())
	case *events.Connected:
		b.onConnected()
	case *events.Disconnected:
		b.connected.Store(false)
		b.notify(domainBot.StatusDisconnected, nil)
		logrus.Warnf("[BOT] %s disconnected", b.ID())
	case *events.LoggedOut:
		b.connected.Store(false)
		b.notify(domainBot.StatusDisconnected, map[string]any{"logged_out": true})
		logrus.Errorf("[BOT] %s was logged out (reason %v)", b.ID(), v.Reason)
	case *events.Blocklist:
		go b.refreshBlocklist(context.Background())
	case *events.CallOffer:
		b.rejectCall(v)
	case *events.GroupInfo:
		b.onGroupInfo(v)
	case *events.JoinedGroup:
		b.onJoinedGroup(v)
	case *events.Message:
		b.onMessage(v)
	case *events.ChatPresence:
		b.presence.Update(v.Chat.String(), v.State == types.ChatPresenceComposing, v.Media == types.ChatPresenceMediaAudio)
	}
}

func (b *Bot) onMessage(evt *events.Message) {
	if evt.Info.Chat.Server == types.BroadcastServer || evt.Info.Chat.String() == "status@broadcast" {
		return
	}

	msg := formatMessage(b.ID(), evt)
	if msg == nil {
		return
	}
	b.resolveIdentities(msg)
	b.cache.Add(msg)

	if msg.FromMe {
		return
	}
	if b.IsBlocked(msg.Author) {
		logrus.Debugf("[EVENT] %s ignoring message from blocked %s", b.ID(), msg.Author)
		return
	}

	b.lastReceived.Store(time.Now().UnixNano())
	if b.opts.Tracker != nil {
		b.opts.Tracker.TrackReceived(b.ID(), msg.IsGroup())
	}

	botmonitor.Record(botmonitor.Event{
		BotID:  b.ID(),
		ChatID: msg.ChatID,
		Stage:  botmonitor.StageInbound,
		Kind:   string(msg.Type),
		Status: botmonitor.StatusOK,
	})

	if b.opts.Handler == nil {
		return
	}

	if msg.Type == message.TypeReaction {
		reaction := evt.Message.GetReactionMessage()
		key := reaction.GetKey()
		if key == nil || reaction.GetText() == "" {
			return
		}
		b.opts.Handler.OnReaction(b, domainBot.Reaction{
			ChatID:    msg.ChatID,
			MessageID: key.GetID(),
			SenderID:  msg.Author,
			Emoji:     reaction.GetText(),
			Timestamp: msg.Timestamp,
		})
		return
	}

	b.opts.Handler.OnMessage(b, msg)
}

// resolveIdentities rewrites LID authors and mentions to phone number JIDs
// so admin lists and mention checks can compare numbers.
func (b *Bot) resolveIdentities(msg *message.Message) {
	msg.Author = b.toPhoneJID(msg.Author)
	if msg.QuotedAuthor != "" {
		msg.QuotedAuthor = b.toPhoneJID(msg.QuotedAuthor)
	}
	for i, m := range msg.Mentions {
		msg.Mentions[i] = b.toPhoneJID(m)
	}
}

func (b *Bot) toPhoneJID(id string) string {
	jid, err := types.ParseJID(id)
	if err != nil || jid.Server != types.HiddenUserServer {
		return id
	}
	if lid := b.ownLID(); lid != "" && utils.SameUser(lid, id) {
		return b.OwnJID()
	}
	cli := b.getClient()
	if cli == nil || cli.Store == nil || cli.Store.LIDs == nil {
		return id
	}
	pn, err := cli.Store.LIDs.GetPNForLID(context.Background(), jid)
	if err != nil || pn.IsEmpty() {
		return id
	}
	return pn.ToNonAD().String()
}

func (b *Bot) onGroupInfo(evt *events.GroupInfo) {
	if b.opts.Handler == nil || (len(evt.Join) == 0 && len(evt.Leave) == 0) {
		return
	}

	base := domainBot.MembershipEvent{GroupID: evt.JID.String()}
	if evt.Sender != nil {
		base.AuthorID = b.toPhoneJID(evt.Sender.ToNonAD().String())
	}
	if evt.Name != nil {
		base.GroupName = evt.Name.Name
	}

	build := func(jids []types.JID) domainBot.MembershipEvent {
		e := base
		for _, j := range jids {
			id := b.toPhoneJID(j.ToNonAD().String())
			if b.isSelf(id) {
				e.IncludesBot = true
			}
			e.UserIDs = append(e.UserIDs, id)
		}
		return e
	}

	if len(evt.Join) > 0 {
		b.opts.Handler.OnGroupJoin(b, build(evt.Join))
	}
	if len(evt.Leave) > 0 {
		b.opts.Handler.OnGroupLeave(b, build(evt.Leave))
	}
}

// onJoinedGroup handles the bot being added to a group or joining through
// an invite link. whatsmeow reports these as JoinedGroup, not GroupInfo.
func (b *Bot) onJoinedGroup(evt *events.JoinedGroup) {
	if b.opts.Handler == nil {
		return
	}
	e := domainBot.MembershipEvent{
		GroupID:     evt.JID.String(),
		GroupName:   evt.Name,
		IncludesBot: true,
	}
	switch {
	case evt.SenderPN != nil && !evt.SenderPN.IsEmpty():
		e.AuthorID = evt.SenderPN.ToNonAD().String()
	case evt.Sender != nil && !evt.Sender.IsEmpty():
		e.AuthorID = b.toPhoneJID(evt.Sender.ToNonAD().String())
	}
	if own := b.OwnJID(); own != "" {
		e.UserIDs = []string{own}
	}
	logrus.Infof("[BOT] %s joined %s (reason %q)", b.ID(), e.GroupID, evt.Reason)
	b.opts.Handler.OnGroupJoin(b, e)
}

func (b *Bot) rejectCall(evt *events.CallOffer) {
	cli := b.getClient()
	if cli == nil {
		return
	}
	go func() {
		if err := cli.RejectCall(context.Background(), evt.From, evt.CallID); err != nil {
			logrus.WithError(err).Warnf("[BOT] %s failed to reject call from %s", b.ID(), evt.From)
			return
		}
		logrus.Infof("[BOT] %s rejected call from %s", b.ID(), evt.From)
	}()
}

func (b *Bot) refreshBlocklist(ctx context.Context) {
	cli := b.getClient()
	if cli == nil || !cli.IsLoggedIn() {
		return
	}
	list, err := cli.GetBlocklist(ctx)
	if err != nil {
		logrus.WithError(err).Warnf("[BOT] %s failed to load blocklist", b.ID())
		return
	}
	users := make([]string, 0, len(list.JIDs))
	for _, j := range list.JIDs {
		users = append(users, b.toPhoneJID(j.ToNonAD().String()))
	}
	b.setBlocked(users)
	logrus.Debugf("[BOT] %s blocklist refreshed (%d)", b.ID(), len(users))
}
