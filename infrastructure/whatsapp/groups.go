package whatsapp

import (
	"context"
	"fmt"
	"strings"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
)

func (b *Bot) GetGroupInfo(ctx context.Context, groupID string) (domainBot.GroupInfo, error) {
	cli := b.getClient()
	if cli == nil {
		return domainBot.GroupInfo{}, errNotConnected
	}
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return domainBot.GroupInfo{}, fmt.Errorf("invalid group id %s: %w", groupID, err)
	}
	info, err := cli.GetGroupInfo(ctx, jid)
	if err != nil {
		return domainBot.GroupInfo{}, err
	}
	return b.toGroupInfo(info), nil
}

func (b *Bot) GetJoinedGroups(ctx context.Context) ([]domainBot.GroupInfo, error) {
	cli := b.getClient()
	if cli == nil {
		return nil, errNotConnected
	}
	groups, err := cli.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domainBot.GroupInfo, 0, len(groups))
	for _, g := range groups {
		out = append(out, b.toGroupInfo(g))
	}
	return out, nil
}

// GetInviteInfo previews the group behind an invite code without joining.
func (b *Bot) GetInviteInfo(ctx context.Context, code string) (domainBot.GroupInfo, error) {
	cli := b.getClient()
	if cli == nil {
		return domainBot.GroupInfo{}, errNotConnected
	}
	info, err := cli.GetGroupInfoFromLink(ctx, inviteCode(code))
	if err != nil {
		return domainBot.GroupInfo{}, err
	}
	return b.toGroupInfo(info), nil
}

func (b *Bot) JoinGroupWithInvite(ctx context.Context, code string) (string, error) {
	if b.opts.Whatsapp.SafeMode {
		logrus.Infof("[MODO SEGURO] Entraria no grupo com convite %s", code)
		return "", nil
	}
	cli := b.getClient()
	if cli == nil {
		return "", errNotConnected
	}
	jid, err := cli.JoinGroupWithLink(ctx, inviteCode(code))
	if err != nil {
		return "", err
	}
	logrus.Infof("[BOT] %s joined group %s", b.ID(), jid.String())
	return jid.String(), nil
}

func (b *Bot) LeaveGroup(ctx context.Context, groupID string) error {
	if b.opts.Whatsapp.SafeMode {
		logrus.Infof("[MODO SEGURO] Sairia do grupo %s", groupID)
		return nil
	}
	cli := b.getClient()
	if cli == nil {
		return errNotConnected
	}
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return err
	}
	return cli.LeaveGroup(ctx, jid)
}

// IsUserAdminInGroup checks both the phone and the LID forms of userID.
func (b *Bot) IsUserAdminInGroup(ctx context.Context, userID, groupID string) (bool, error) {
	info, err := b.GetGroupInfo(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, p := range info.Participants {
		if (p.IsAdmin || p.IsSuperAdmin) && utils.SameUser(p.JID, userID) {
			return true, nil
		}
	}
	return false, nil
}

func (b *Bot) toGroupInfo(info *types.GroupInfo) domainBot.GroupInfo {
	if info == nil {
		return domainBot.GroupInfo{}
	}
	out := domainBot.GroupInfo{
		ID:    info.JID.String(),
		Name:  info.GroupName.Name,
		Topic: info.GroupTopic.Topic,
	}
	if !info.OwnerJID.IsEmpty() {
		out.Owner = b.toPhoneJID(info.OwnerJID.ToNonAD().String())
	}
	for _, p := range info.Participants {
		jid := p.JID
		if !p.PhoneNumber.IsEmpty() {
			jid = p.PhoneNumber
		}
		out.Participants = append(out.Participants, domainBot.Participant{
			JID:          b.toPhoneJID(jid.ToNonAD().String()),
			Name:         p.DisplayName,
			IsAdmin:      p.IsAdmin,
			IsSuperAdmin: p.IsSuperAdmin,
		})
	}
	return out
}

// inviteCode accepts a bare code or a chat.whatsapp.com link.
func inviteCode(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexAny(s, "?# "); i >= 0 {
		s = s[:i]
	}
	return s
}
