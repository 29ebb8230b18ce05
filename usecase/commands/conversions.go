package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/domains/speech"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	msgNoQuotedMedia   = "A mensagem citada não contém mídia."
	msgUnsupportedType = "Tipo de mídia não suportado: %s. Use em áudio, voz ou vídeo."
	msgProcessingAudio = "⏳ Processando áudio..."
	msgAdjustingVolume = "⏳ Ajustando volume para %d%%..."
	msgVolumeUsage     = "Por favor, especifique o nível de volume (0-1000). Exemplo: %svolume 200"
	msgVolumeInvalid   = "Nível de volume inválido. Use um valor entre 0 e 1000."
	msgAudioError      = "Erro ao processar áudio."
	msgVolumeError     = "Erro ao ajustar volume."

	maxVolume = 1000
)

// Conversions turns quoted audio, voice or video into other audio formats.
type Conversions struct {
	converter speech.IAudioConverter
	tempDir   string
}

func NewConversions(converter speech.IAudioConverter, tempDir string) *Conversions {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Conversions{converter: converter, tempDir: tempDir}
}

func (c *Conversions) Commands() []*command.Command {
	return []*command.Command{
		{
			Name:           "getaudio",
			Description:    "Converte a mídia citada em arquivo de áudio (mp3)",
			Category:       command.CategoryFiles,
			NeedsQuotedMsg: true,
			Reactions:      command.Reactions{Before: "⏳", After: "🎵", Error: "❌"},
			Method:         c.getAudio,
		},
		{
			Name:           "getvoice",
			Description:    "Converte a mídia citada em mensagem de voz",
			Category:       command.CategoryFiles,
			NeedsQuotedMsg: true,
			Reactions:      command.Reactions{Before: "⏳", After: "🎤", Error: "❌"},
			Method:         c.getVoice,
		},
		{
			Name:           "volume",
			Usage:          "<0-1000>",
			Description:    "Ajusta o volume da mídia citada",
			Category:       command.CategoryFiles,
			NeedsQuotedMsg: true,
			Reactions:      command.Reactions{Before: "⏳", After: "🔊", Error: "❌"},
			Method:         c.volume,
		},
	}
}

// quotedAudio downloads the quoted media when it is audio, voice or video.
// A non-empty reply means the request cannot go on.
func (c *Conversions) quotedAudio(ctx context.Context, req *command.Request) (*message.Message, *message.Media, string) {
	q, err := req.Quoted(ctx)
	if err != nil || q == nil || !q.Type.HasMedia() {
		return nil, nil, msgNoQuotedMedia
	}
	if !q.Type.IsAudible() {
		return nil, nil, fmt.Sprintf(msgUnsupportedType, q.Type)
	}
	media, err := req.Bot.DownloadMedia(ctx, q)
	if err != nil {
		logrus.WithError(err).Warn("[CONVERSION] Download failed")
		return nil, nil, msgAudioError
	}
	return q, media, ""
}

// convert writes media to disk, runs fn from it to a file with outExt and
// returns the result.
func (c *Conversions) convert(ctx context.Context, media *message.Media, outExt string, fn func(ctx context.Context, in, out string) error) ([]byte, error) {
	in, err := writeTemp(c.tempDir, "conv", extensionOf(media.MimeType), media.Data)
	if err != nil {
		return nil, err
	}
	out := utils.TempPath(c.tempDir, "conv", outExt)
	defer utils.RemoveFiles(in, out)

	if err := fn(ctx, in, out); err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}

func (c *Conversions) notice(ctx context.Context, req *command.Request, text string) {
	if _, err := req.Bot.SendReturnMessages(ctx, req.Reply(text)); err != nil {
		logrus.WithError(err).Debug("[CONVERSION] Could not send notice")
	}
}

func (c *Conversions) getAudio(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	_, media, problem := c.quotedAudio(ctx, req)
	if problem != "" {
		return reply(req, problem)
	}
	c.notice(ctx, req, msgProcessingAudio)

	data, err := c.convert(ctx, media, "mp3", c.converter.ToMP3)
	if err != nil {
		logrus.WithError(err).Error("[CONVERSION] getaudio failed")
		return reply(req, msgAudioError)
	}
	out := req.Reply("")
	out.Content = message.MediaContent(&message.Media{Data: data, MimeType: "audio/mp3", FileName: "audio.mp3"})
	return []message.ReturnMessage{out}, nil
}

func (c *Conversions) getVoice(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	_, media, problem := c.quotedAudio(ctx, req)
	if problem != "" {
		return reply(req, problem)
	}
	c.notice(ctx, req, msgProcessingAudio)

	data, err := c.convert(ctx, media, "ogg", c.converter.ToVoice)
	if err != nil {
		logrus.WithError(err).Error("[CONVERSION] getvoice failed")
		return reply(req, msgAudioError)
	}
	out := req.Reply("")
	out.Content = message.MediaContent(&message.Media{Data: data, MimeType: voiceMime, FileName: "voice.ogg"})
	out.Options.AsVoice = true
	return []message.ReturnMessage{out}, nil
}

func (c *Conversions) volume(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	if len(req.Args) == 0 {
		return reply(req, fmt.Sprintf(msgVolumeUsage, req.Bot.Prefix()))
	}
	level, err := strconv.Atoi(req.Args[0])
	if err != nil || level < 0 || level > maxVolume {
		return reply(req, msgVolumeInvalid)
	}

	q, media, problem := c.quotedAudio(ctx, req)
	if problem != "" {
		return reply(req, problem)
	}
	c.notice(ctx, req, fmt.Sprintf(msgAdjustingVolume, level))

	ext := extensionOf(media.MimeType)
	data, err := c.convert(ctx, media, ext, func(ctx context.Context, in, out string) error {
		return c.converter.AdjustVolume(ctx, in, out, level)
	})
	if err != nil {
		logrus.WithError(err).Error("[CONVERSION] volume failed")
		return reply(req, msgVolumeError)
	}

	out := req.Reply("")
	out.Content = message.MediaContent(&message.Media{Data: data, MimeType: media.MimeType, FileName: "volume." + ext})
	out.Options.AsVoice = q.Type == message.TypeVoice
	return []message.ReturnMessage{out}, nil
}
