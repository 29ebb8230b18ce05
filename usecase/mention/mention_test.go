package mention

import (
	"context"
	"errors"
	"testing"

	"github.com/AzielCF/az-ravena/domains/llm"
	"github.com/AzielCF/az-ravena/usecase/bottest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupID = "120363000000000001@g.us"

type fakeLLM struct {
	answer string
	err    error
	got    []llm.CompletionRequest
}

func (f *fakeLLM) GetCompletion(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.got = append(f.got, req)
	return f.answer, f.err
}

func TestIsMentioned(t *testing.T) {
	b := bottest.New("ravena")

	msg := bottest.GroupMessage("1", groupID, "5511999990000", "oi @5511000000000")
	assert.True(t, IsMentioned(b, msg))

	msg = bottest.GroupMessage("2", groupID, "5511999990000", "oi bot")
	msg.Mentions = []string{"5511000000000@s.whatsapp.net"}
	assert.True(t, IsMentioned(b, msg))

	assert.False(t, IsMentioned(b, bottest.GroupMessage("3", groupID, "5511999990000", "oi @5511999990000")))
}

func TestQuestion(t *testing.T) {
	assert.Equal(t, "qual a capital da França?", Question("@5511000000000   qual a capital da França?"))
	assert.Empty(t, Question("@5511000000000"))
}

func TestHandle_AnswersThroughLLM(t *testing.T) {
	service := &fakeLLM{answer: " Paris! "}
	b := bottest.New("ravena")
	msg := bottest.GroupMessage("1", groupID, "5511999990000", "@5511000000000 qual a capital da França?")

	require.NoError(t, NewHandler(service).Handle(context.Background(), b, msg, "!"))

	require.Len(t, service.got, 1)
	assert.Equal(t, "Fulano te marcou e disse: qual a capital da França?", service.got[0].Prompt)
	assert.Equal(t, systemPrompt, service.got[0].System)
	assert.Equal(t, []string{"Paris!"}, b.Texts())
	assert.Equal(t, "1", b.Sent[0].Options.QuotedMessageID)
}

func TestHandle_EmptyQuestionGivesHint(t *testing.T) {
	service := &fakeLLM{}
	b := bottest.New("ravena")

	require.NoError(t, NewHandler(service).Handle(context.Background(), b, bottest.GroupMessage("1", groupID, "1", "@5511000000000"), "#"))

	assert.Empty(t, service.got)
	assert.Equal(t, "Oi! 🦇 Me marcou? Use #cmd para ver o que eu sei fazer.", b.LastText())
}

func TestHandle_LLMFailure(t *testing.T) {
	b := bottest.New("ravena")
	msg := bottest.GroupMessage("1", groupID, "1", "@5511000000000 oi")

	require.NoError(t, NewHandler(&fakeLLM{err: errors.New("rate limited")}).Handle(context.Background(), b, msg, "!"))
	assert.Equal(t, msgError, b.LastText())
}
