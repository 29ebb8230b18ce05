package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/usecase/bottest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type speechFixture struct {
	speech      *Speech
	tts         *fakeTTS
	transcriber *fakeTranscriber
	converter   *fakeConverter
	llm         *fakeLLM
	bot         *bottest.Bot
}

func newSpeechFixture(t *testing.T, punctuate bool) speechFixture {
	t.Helper()
	f := speechFixture{
		tts:         &fakeTTS{},
		transcriber: &fakeTranscriber{text: "oi tudo bem\ncomo vai"},
		converter:   &fakeConverter{},
		llm:         &fakeLLM{answer: "Oi, tudo bem?"},
		bot:         bottest.New("ravena"),
	}
	f.speech = NewSpeech(f.tts, f.transcriber, f.converter, f.llm, SpeechOptions{TempDir: t.TempDir(), Punctuate: punctuate, LongTextLimit: 20})
	return f
}

func voiceMessage(id string) *message.Message {
	msg := bottest.GroupMessage(id, groupID, "5511999990000", "")
	msg.Type = message.TypeVoice
	msg.MimeType = "audio/ogg; codecs=opus"
	return msg
}

func TestSpeech_RegistersEveryVoice(t *testing.T) {
	f := newSpeechFixture(t, false)
	names := map[string]bool{}
	for _, c := range f.speech.Commands() {
		names[c.Name] = true
	}
	for _, v := range Voices {
		assert.True(t, names[v.Command], v.Command)
	}
	assert.True(t, names["stt"])
}

func TestSpeech_TTSSendsVoiceNote(t *testing.T) {
	f := newSpeechFixture(t, false)
	msg := bottest.GroupMessage("1", groupID, "5511999990000", "!tts-mulher bom dia")

	out := run(t, f.speech.Commands(), "tts-mulher", f.bot, msg, nil)

	require.Len(t, out, 1)
	assert.Equal(t, []string{"female_01.wav"}, f.tts.voices)
	assert.Equal(t, []string{"bom dia"}, f.tts.texts)
	assert.True(t, out[0].Options.AsVoice)
	assert.Equal(t, "1", out[0].Options.QuotedMessageID)
	assert.Equal(t, voiceMime, out[0].Content.Media.MimeType)
	assert.Equal(t, "voice:RIFF", string(out[0].Content.Media.Data))
	assert.Empty(t, f.bot.Sent)
}

func TestSpeech_TTSAppendsQuotedTextAndWarnsOnLongText(t *testing.T) {
	f := newSpeechFixture(t, false)
	f.bot.Messages["Q"] = bottest.GroupMessage("Q", groupID, "5511988880000", "um texto citado bem comprido")
	msg := bottest.GroupMessage("1", groupID, "5511999990000", "!tts leia")
	msg.QuotedID = "Q"

	run(t, f.speech.Commands(), "tts", f.bot, msg, nil)

	assert.Equal(t, []string{"leia um texto citado bem comprido"}, f.tts.texts)
	assert.Equal(t, []string{msgTTSLong}, f.bot.Texts())
}

func TestSpeech_TTSHelpAndFailure(t *testing.T) {
	f := newSpeechFixture(t, false)
	out := run(t, f.speech.Commands(), "tts", f.bot, bottest.GroupMessage("1", groupID, "1", "!tts"), nil)
	assert.Equal(t, []string{msgTTSHelp}, texts(out))

	f.tts.err = errors.New("offline")
	out = run(t, f.speech.Commands(), "tts", f.bot, bottest.GroupMessage("2", groupID, "1", "!tts oi"), nil)
	assert.Equal(t, []string{msgTTSError}, texts(out))
}

func TestSpeech_STTItalicizesEachLine(t *testing.T) {
	f := newSpeechFixture(t, false)
	f.bot.Messages["V"] = voiceMessage("V")
	f.bot.Media["V"] = &message.Media{Data: []byte("OGG"), MimeType: "audio/ogg; codecs=opus"}

	msg := bottest.GroupMessage("1", groupID, "5511999990000", "!stt")
	msg.QuotedID = "V"
	out := run(t, f.speech.Commands(), "transcrever", f.bot, msg, nil)

	assert.Equal(t, []string{"_oi tudo bem_\n_como vai_"}, texts(out))
	assert.Equal(t, []string{"wav:OGG"}, f.transcriber.seen)
	assert.Empty(t, f.llm.prompts)
}

func TestSpeech_STTPunctuationPass(t *testing.T) {
	f := newSpeechFixture(t, true)
	msg := voiceMessage("V")
	f.bot.Media["V"] = &message.Media{Data: []byte("OGG"), MimeType: "audio/ogg"}

	out := run(t, f.speech.Commands(), "stt", f.bot, msg, nil)

	assert.Equal(t, []string{"_Oi, tudo bem?_"}, texts(out))
	require.Len(t, f.llm.prompts, 1)
	assert.True(t, strings.HasSuffix(f.llm.prompts[0].Prompt, "'oi tudo bem\ncomo vai'"))
	assert.Equal(t, 300, f.llm.prompts[0].MaxTokens)
}

func TestSpeech_STTWithoutAudioAndEmptyTranscript(t *testing.T) {
	f := newSpeechFixture(t, false)
	out := run(t, f.speech.Commands(), "stt", f.bot, bottest.GroupMessage("1", groupID, "1", "!stt"), nil)
	assert.Equal(t, []string{msgSTTNoAudio}, texts(out))

	f.transcriber.text = "  "
	msg := voiceMessage("V")
	f.bot.Media["V"] = &message.Media{Data: []byte("OGG"), MimeType: "audio/ogg"}
	out = run(t, f.speech.Commands(), "stt", f.bot, msg, nil)
	assert.Equal(t, []string{msgSTTEmpty}, texts(out))
}

func TestSpeech_AutoSTTRepliesQuotingTheNote(t *testing.T) {
	f := newSpeechFixture(t, false)
	msg := voiceMessage("V")
	f.bot.Media["V"] = &message.Media{Data: []byte("OGG"), MimeType: "audio/ogg"}

	f.speech.AutoSTT(context.Background(), f.bot, msg)

	require.Len(t, f.bot.Sent, 1)
	assert.Equal(t, "_oi tudo bem_\n_como vai_", f.bot.Sent[0].Content.Text)
	assert.Equal(t, "V", f.bot.Sent[0].Options.QuotedMessageID)
}

func TestSpeech_AutoSTTSilentOnFailure(t *testing.T) {
	f := newSpeechFixture(t, false)
	f.transcriber.err = errors.New("whisper crashed")
	msg := voiceMessage("V")
	f.bot.Media["V"] = &message.Media{Data: []byte("OGG"), MimeType: "audio/ogg"}

	f.speech.AutoSTT(context.Background(), f.bot, msg)
	f.speech.AutoSTT(context.Background(), f.bot, bottest.GroupMessage("T", groupID, "1", "texto"))

	assert.Empty(t, f.bot.Sent)
}

func TestSpeech_NoTranscriberConfigured(t *testing.T) {
	b := bottest.New("ravena")
	s := NewSpeech(&fakeTTS{}, nil, &fakeConverter{}, nil, SpeechOptions{TempDir: t.TempDir()})
	b.Media["V"] = &message.Media{Data: []byte("OGG"), MimeType: "audio/ogg"}

	assert.NotPanics(t, func() { s.AutoSTT(context.Background(), b, voiceMessage("V")) })
	assert.Empty(t, b.Sent)

	msg := voiceMessage("V")
	msg.Content = "!stt"
	out := run(t, s.Commands(), "stt", b, msg, nil)
	assert.Equal(t, []string{msgSTTError}, texts(out))

	_, err := s.transcribe(context.Background(), &message.Media{Data: []byte("OGG"), MimeType: "audio/ogg"})
	assert.ErrorIs(t, err, ErrSTTDisabled)
}
