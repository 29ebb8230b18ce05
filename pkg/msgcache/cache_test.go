package msgcache

import (
	"testing"
	"time"

	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_AddGet(t *testing.T) {
	c := New(time.Minute, 10)
	msg := &message.Message{ID: "ABC", ChatID: "1@g.us", Content: "oi"}
	c.Add(msg)

	got, ok := c.Get("1@g.us", "ABC")
	require.True(t, ok)
	assert.Same(t, msg, got)

	_, ok = c.Get("2@g.us", "ABC")
	assert.False(t, ok, "same id in another chat is a different message")
}

func TestCache_IgnoresIncompleteMessages(t *testing.T) {
	c := New(time.Minute, 10)
	c.Add(nil)
	c.Add(&message.Message{ID: "", ChatID: "1@g.us"})
	c.Add(&message.Message{ID: "x", ChatID: " "})
	assert.Equal(t, 0, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	c := New(time.Minute, 10)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Add(&message.Message{ID: "A", ChatID: "c"})

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("c", "A")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_EvictsOldestWhenFull(t *testing.T) {
	c := New(time.Hour, 2)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Add(&message.Message{ID: "1", ChatID: "c"})
	now = now.Add(time.Second)
	c.Add(&message.Message{ID: "2", ChatID: "c"})
	now = now.Add(time.Second)
	c.Add(&message.Message{ID: "3", ChatID: "c"})

	_, ok := c.Get("c", "1")
	assert.False(t, ok)
	_, ok = c.Get("c", "3")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}
