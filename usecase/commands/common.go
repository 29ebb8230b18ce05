// Package commands holds the fixed commands of the bot, grouped by area.
package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/group"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/utils"
)

func reply(req *command.Request, s string) ([]message.ReturnMessage, error) {
	return []message.ReturnMessage{req.Reply(s)}, nil
}

func onOff(v bool) string {
	if v {
		return "ativado"
	}
	return "desativado"
}

// targetUser picks the user a command refers to: a mention, the quoted
// author or a number typed in the arguments.
func targetUser(ctx context.Context, req *command.Request) string {
	if len(req.Message.Mentions) > 0 {
		return req.Message.Mentions[0]
	}
	if digits := utils.OnlyDigits(req.ArgText()); len(digits) >= 8 {
		return utils.UserJID(digits)
	}
	if q, _ := req.Quoted(ctx); q != nil && q.Author != "" {
		return q.Author
	}
	return ""
}

// quotedText returns the body of the quoted message, or "".
func quotedText(ctx context.Context, req *command.Request) string {
	q, err := req.Quoted(ctx)
	if err != nil || q == nil {
		return ""
	}
	return strings.TrimSpace(q.Text())
}

// mediaOf downloads the media of the message itself or of the quoted one.
func mediaOf(ctx context.Context, req *command.Request, accept func(message.Type) bool) (*message.Message, *message.Media, error) {
	candidates := []*message.Message{req.Message}
	if q, _ := req.Quoted(ctx); q != nil && q != req.Message {
		candidates = append(candidates, q)
	}
	for _, m := range candidates {
		if m == nil || !accept(m.Type) {
			continue
		}
		media, err := req.Bot.DownloadMedia(ctx, m)
		if err != nil {
			return m, nil, err
		}
		return m, media, nil
	}
	return nil, nil, nil
}

func saveGroup(ctx context.Context, repo group.IGroupRepository, g *group.Group) error {
	if err := repo.SaveGroup(ctx, g); err != nil {
		return fmt.Errorf("failed to save group %s: %w", g.ID, err)
	}
	return nil
}

// writeTemp stores data in dir under a fresh name and returns the path.
func writeTemp(dir, prefix, ext string, data []byte) (string, error) {
	if err := utils.CreateFolder(dir); err != nil {
		return "", err
	}
	path := utils.TempPath(dir, prefix, ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// extensionOf maps a mime type to a file extension for ffmpeg input files.
func extensionOf(mime string) string {
	mime = strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
	parts := strings.SplitN(mime, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "bin"
	}
	switch parts[1] {
	case "mpeg":
		return "mp3"
	case "quicktime":
		return "mov"
	}
	return parts[1]
}
