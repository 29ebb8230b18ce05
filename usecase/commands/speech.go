package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/domains/speech"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	voiceMime = "audio/ogg; codecs=opus"

	msgTTSHelp      = "Por favor, forneça texto para converter em voz."
	msgTTSLong      = "🔉 Sintetizando áudio, isso pode levar alguns segundos..."
	msgTTSError     = "Erro ao gerar voz. Por favor, tente novamente."
	msgSTTNoAudio   = "Por favor, forneça um áudio ou mensagem de voz."
	msgSTTError     = "Erro ao transcrever áudio. Por favor, tente novamente."
	msgSTTEmpty     = "Não foi possível transcrever o áudio. O áudio pode estar muito baixo ou pouco claro."
	punctuatePrompt = "Vou enviar no final deste prompt a transcrição de um áudio, coloque a pontuação mais adequada e formate corretamente maíusculas e minúsculas. Me retorne APENAS com a mensagem formatada: '%s'"
)

// Voice is a TTS character and the AllTalk sample it speaks with.
type Voice struct {
	Command  string
	File     string
	Triggers []string
}

// Voices lists the TTS characters in the order they are registered.
var Voices = []Voice{
	{Command: "tts", File: "ravena_sample.wav", Triggers: []string{"🗣️", "🦇"}},
	{Command: "tts-mulher", File: "female_01.wav", Triggers: []string{"👩"}},
	{Command: "tts-carioca", File: "female_02.wav"},
	{Command: "tts-carioco", File: "male_02.wav"},
	{Command: "tts-sensual", File: "female_03.wav", Triggers: []string{"💋"}},
	{Command: "tts-sensuel", File: "male_04.wav"},
	{Command: "tts-homem", File: "male_01.wav", Triggers: []string{"👨"}},
	{Command: "tts-clint", File: "Clint_Eastwood CC3 (enhanced).wav"},
	{Command: "tts-morgan", File: "Morgan_Freeman CC3.wav"},
	{Command: "tts-narrador", File: "James_Earl_Jones CC3.wav", Triggers: []string{"🎙️"}},
}

type SpeechOptions struct {
	TempDir       string
	Punctuate     bool
	LongTextLimit int
}

// ErrSTTDisabled is returned when no transcriber is configured.
var ErrSTTDisabled = errors.New("speech to text is disabled")

// Speech implements text to speech and transcription.
type Speech struct {
	tts         speech.ITTSClient
	transcriber speech.ITranscriber
	converter   speech.IAudioConverter
	llm         llm.ILLMService
	opts        SpeechOptions
}

func NewSpeech(tts speech.ITTSClient, transcriber speech.ITranscriber, converter speech.IAudioConverter, llmService llm.ILLMService, opts SpeechOptions) *Speech {
	if opts.LongTextLimit <= 0 {
		opts.LongTextLimit = 150
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Speech{tts: tts, transcriber: transcriber, converter: converter, llm: llmService, opts: opts}
}

func (s *Speech) Commands() []*command.Command {
	var cmds []*command.Command
	for _, v := range Voices {
		desc := "Converte texto em voz"
		if v.Command != "tts" {
			desc += " (" + strings.TrimPrefix(v.Command, "tts-") + ")"
		}
		cmds = append(cmds, &command.Command{
			Name:        v.Command,
			Usage:       "<texto>",
			Description: desc,
			Category:    command.CategorySpeech,
			Reactions:   command.Reactions{Trigger: v.Triggers, Before: "⌛️", After: "🔊"},
			Method:      s.ttsWith(v.File),
		})
	}
	cmds = append(cmds, &command.Command{
		Name:        "stt",
		Aliases:     []string{"transcrever"},
		Description: "Transcreve um áudio ou mensagem de voz",
		Category:    command.CategorySpeech,
		NeedsMedia:  true,
		Reactions:   command.Reactions{Trigger: []string{"👂"}, Before: "⌛️", After: "👂"},
		Method:      s.stt,
	})
	return cmds
}

func (s *Speech) ttsWith(voiceFile string) command.HandlerFunc {
	return func(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
		text := req.ArgText()
		if q := quotedText(ctx, req); q != "" {
			text = strings.TrimSpace(text + " " + q)
		}
		if text == "" {
			return reply(req, msgTTSHelp)
		}

		if len([]rune(text)) > s.opts.LongTextLimit {
			if _, err := req.Bot.SendReturnMessages(ctx, req.Reply(msgTTSLong)); err != nil {
				logrus.WithError(err).Debug("[SPEECH] Could not send long text notice")
			}
		}

		audio, err := s.synthesize(ctx, text, voiceFile)
		if err != nil {
			logrus.WithError(err).WithField("voice", voiceFile).Error("[SPEECH] TTS failed")
			return reply(req, msgTTSError)
		}

		out := req.Reply("")
		out.Content = message.MediaContent(&message.Media{Data: audio, MimeType: voiceMime, FileName: "tts.ogg"})
		out.Options.AsVoice = true
		return []message.ReturnMessage{out}, nil
	}
}

// synthesize asks AllTalk for a wav and converts it to an ogg/opus voice note.
func (s *Speech) synthesize(ctx context.Context, text, voiceFile string) ([]byte, error) {
	wav, err := s.tts.Generate(ctx, text, voiceFile)
	if err != nil {
		return nil, err
	}
	in, err := writeTemp(s.opts.TempDir, "tts", "wav", wav)
	if err != nil {
		return nil, err
	}
	out := utils.TempPath(s.opts.TempDir, "tts", "ogg")
	defer utils.RemoveFiles(in, out)

	if err := s.converter.ToVoice(ctx, in, out); err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}

func (s *Speech) stt(ctx context.Context, req *command.Request) ([]message.ReturnMessage, error) {
	if s.transcriber == nil {
		logrus.Debug("[SPEECH] stt requested with no transcriber configured")
		return reply(req, msgSTTError)
	}
	_, media, err := mediaOf(ctx, req, message.Type.IsAudible)
	if err != nil {
		logrus.WithError(err).Warn("[SPEECH] Could not download audio")
		return reply(req, msgSTTError)
	}
	if media == nil {
		return reply(req, msgSTTNoAudio)
	}

	text, err := s.transcribe(ctx, media)
	if err != nil {
		logrus.WithError(err).Error("[SPEECH] STT failed")
		return reply(req, msgSTTError)
	}
	if text == "" {
		return reply(req, msgSTTEmpty)
	}
	return reply(req, utils.MultilineItalic(text))
}

// AutoSTT transcribes a voice note and replies with the italic text. Failures
// are only logged.
func (s *Speech) AutoSTT(ctx context.Context, b bot.IBot, msg *message.Message) {
	if s.transcriber == nil || !msg.Type.IsAudible() || msg.Type == message.TypeVideo {
		return
	}
	logger := logrus.WithFields(logrus.Fields{"bot_id": b.ID(), "chat": msg.ChatID})

	media, err := b.DownloadMedia(ctx, msg)
	if err != nil {
		logger.WithError(err).Debug("[SPEECH] Auto STT download failed")
		return
	}
	text, err := s.transcribe(ctx, media)
	if err != nil || text == "" {
		logger.WithError(err).Debug("[SPEECH] Auto STT produced no text")
		return
	}
	if _, err := b.SendReturnMessages(ctx, message.Reply(msg, utils.MultilineItalic(text))); err != nil {
		logger.WithError(err).Warn("[SPEECH] Auto STT reply failed")
	}
}

func (s *Speech) transcribe(ctx context.Context, media *message.Media) (string, error) {
	if s.transcriber == nil {
		return "", ErrSTTDisabled
	}
	in, err := writeTemp(s.opts.TempDir, "stt", extensionOf(media.MimeType), media.Data)
	if err != nil {
		return "", err
	}
	wav := utils.TempPath(s.opts.TempDir, "stt", "wav")
	defer utils.RemoveFiles(in, wav)

	if err := s.converter.ToWAV(ctx, in, wav); err != nil {
		return "", err
	}
	text, err := s.transcriber.Transcribe(ctx, wav)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" || !s.opts.Punctuate || s.llm == nil {
		return text, nil
	}

	punctuated, err := s.llm.GetCompletion(ctx, llm.CompletionRequest{
		Prompt:      fmt.Sprintf(punctuatePrompt, text),
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil || strings.TrimSpace(punctuated) == "" {
		logrus.WithError(err).Debug("[SPEECH] Punctuation pass skipped")
		return text, nil
	}
	return strings.TrimSpace(punctuated), nil
}
