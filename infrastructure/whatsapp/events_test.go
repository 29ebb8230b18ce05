package whatsapp

import (
	"testing"

	"github.com/AzielCF/az-ravena/core/config"
	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

type recordingHandler struct {
	joins  []domainBot.MembershipEvent
	leaves []domainBot.MembershipEvent
}

func (r *recordingHandler) OnMessage(domainBot.IBot, *message.Message)    {}
func (r *recordingHandler) OnReaction(domainBot.IBot, domainBot.Reaction) {}
func (r *recordingHandler) OnGroupJoin(_ domainBot.IBot, evt domainBot.MembershipEvent) {
	r.joins = append(r.joins, evt)
}
func (r *recordingHandler) OnGroupLeave(_ domainBot.IBot, evt domainBot.MembershipEvent) {
	r.leaves = append(r.leaves, evt)
}

func newEventBot(h domainBot.IEventHandler) *Bot {
	return NewBot(Options{
		Bot:     config.BotConfig{ID: "ravena", PhoneNumber: "5511000000000", Prefix: "!"},
		Handler: h,
	})
}

func TestHandleEvent_JoinedGroupByInvite(t *testing.T) {
	h := &recordingHandler{}
	b := newEventBot(h)

	evt := &events.JoinedGroup{Reason: "invite"}
	evt.JID = types.NewJID("120363000000000001", types.GroupServer)
	evt.Name = "Amigos"
	b.handleEvent(evt)

	require.Len(t, h.joins, 1)
	got := h.joins[0]
	assert.True(t, got.IncludesBot)
	assert.Equal(t, "120363000000000001@g.us", got.GroupID)
	assert.Equal(t, "Amigos", got.GroupName)
	assert.Empty(t, got.AuthorID)
	assert.Equal(t, []string{"5511000000000@s.whatsapp.net"}, got.UserIDs)
}

func TestHandleEvent_JoinedGroupAddedBySomeone(t *testing.T) {
	h := &recordingHandler{}
	b := newEventBot(h)

	sender := types.NewJID("123456789", types.HiddenUserServer)
	senderPN := types.NewJID("5511999990000", types.DefaultUserServer)
	evt := &events.JoinedGroup{Type: "new", Sender: &sender, SenderPN: &senderPN}
	evt.JID = types.NewJID("120363000000000002", types.GroupServer)
	b.handleEvent(evt)

	require.Len(t, h.joins, 1)
	assert.True(t, h.joins[0].IncludesBot)
	assert.Equal(t, "5511999990000@s.whatsapp.net", h.joins[0].AuthorID)
}

func TestHandleEvent_GroupInfoMembership(t *testing.T) {
	h := &recordingHandler{}
	b := newEventBot(h)

	sender := types.NewJID("5511999990000", types.DefaultUserServer)
	b.handleEvent(&events.GroupInfo{
		JID:    types.NewJID("120363000000000001", types.GroupServer),
		Sender: &sender,
		Join:   []types.JID{types.NewJID("5511888880000", types.DefaultUserServer)},
		Leave:  []types.JID{types.NewJID("5511000000000", types.DefaultUserServer)},
	})

	require.Len(t, h.joins, 1)
	assert.False(t, h.joins[0].IncludesBot)
	assert.Equal(t, []string{"5511888880000@s.whatsapp.net"}, h.joins[0].UserIDs)
	assert.Equal(t, "5511999990000@s.whatsapp.net", h.joins[0].AuthorID)

	require.Len(t, h.leaves, 1)
	assert.True(t, h.leaves[0].IncludesBot)
}
