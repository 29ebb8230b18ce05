package command

import (
	"context"
	"testing"

	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactions_HasTriggerIgnoresVariationSelector(t *testing.T) {
	r := Reactions{Trigger: []string{"🗣️", "🦇"}}

	assert.True(t, r.HasTrigger("🗣"))
	assert.True(t, r.HasTrigger("🦇"))
	assert.False(t, r.HasTrigger("👍"))
}

func TestCommand_Names(t *testing.T) {
	c := &Command{Name: "STT", Aliases: []string{"Transcrever"}}
	assert.Equal(t, []string{"stt", "transcrever"}, c.Names())
}

func TestRequest_QuotedPreset(t *testing.T) {
	origin := &message.Message{ID: "1", Type: message.TypeVoice}
	req := NewRequest(nil, origin, nil, "stt", nil).WithQuoted(origin)

	q, err := req.Quoted(context.Background())
	require.NoError(t, err)
	assert.Same(t, origin, q)
}

func TestRequest_QuotedMissing(t *testing.T) {
	req := NewRequest(nil, &message.Message{ID: "1"}, nil, "tts", []string{"oi", "gente"})

	q, err := req.Quoted(context.Background())
	require.NoError(t, err)
	assert.Nil(t, q)
	assert.Equal(t, "oi gente", req.ArgText())
}

func TestRequest_Author(t *testing.T) {
	req := NewRequest(nil, &message.Message{Author: "a@s.whatsapp.net"}, nil, "tts", nil)
	assert.Equal(t, "a@s.whatsapp.net", req.Author())

	req.ReactedBy = "b@s.whatsapp.net"
	assert.Equal(t, "b@s.whatsapp.net", req.Author())
}
