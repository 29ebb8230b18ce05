package whatsapp

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

func (b *Bot) BlockContact(ctx context.Context, userID string) error {
	return b.updateBlock(ctx, userID, events.BlocklistChangeActionBlock)
}

func (b *Bot) UnblockContact(ctx context.Context, userID string) error {
	return b.updateBlock(ctx, userID, events.BlocklistChangeActionUnblock)
}

func (b *Bot) updateBlock(ctx context.Context, userID string, action events.BlocklistChangeAction) error {
	blocked := action == events.BlocklistChangeActionBlock
	if b.opts.Whatsapp.SafeMode {
		logrus.Infof("[MODO SEGURO] %s %s (block=%v)", b.ID(), userID, blocked)
		b.markBlocked(userID, blocked)
		return nil
	}
	cli := b.getClient()
	if cli == nil {
		return errNotConnected
	}
	jid, err := parseJID(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %s: %w", userID, err)
	}
	if _, err := cli.UpdateBlocklist(ctx, jid.ToNonAD(), action); err != nil {
		return err
	}
	b.markBlocked(jid.String(), blocked)
	return nil
}

// GetContactName returns the best known name for userID, or its number.
func (b *Bot) GetContactName(ctx context.Context, userID string) string {
	fallback := utils.UserPart(userID)
	cli := b.getClient()
	if cli == nil || cli.Store == nil || cli.Store.Contacts == nil {
		return fallback
	}
	jid, err := parseJID(userID)
	if err != nil {
		return fallback
	}
	contact, err := cli.Store.Contacts.GetContact(ctx, jid.ToNonAD())
	if err != nil || !contact.Found {
		return fallback
	}
	for _, name := range []string{contact.FullName, contact.PushName, contact.FirstName, contact.BusinessName} {
		if name != "" {
			return name
		}
	}
	return fallback
}

// SetProfilePicture replaces the bot's own avatar with a JPEG image.
func (b *Bot) SetProfilePicture(ctx context.Context, jpeg []byte) error {
	if len(jpeg) == 0 {
		return fmt.Errorf("empty picture")
	}
	if b.opts.Whatsapp.SafeMode {
		logrus.Infof("[MODO SEGURO] %s trocaria a foto de perfil", b.ID())
		return nil
	}
	cli := b.getClient()
	if cli == nil {
		return errNotConnected
	}
	_, err := cli.SetGroupPhoto(ctx, types.EmptyJID, jpeg)
	return err
}
