// Package chatpresence remembers which chats have someone typing, so a bot
// can hold its reply until the other side goes quiet.
package chatpresence

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a composing state is trusted without a refresh.
// WhatsApp repeats the notification every few seconds while typing goes on.
const DefaultTTL = 12 * time.Second

type state struct {
	composing bool
	audio     bool
	updatedAt time.Time
}

type Tracker struct {
	mu    sync.Mutex
	ttl   time.Duration
	chats map[string]state
	now   func() time.Time
	poll  time.Duration
}

func New(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		ttl:   ttl,
		chats: make(map[string]state),
		now:   time.Now,
		poll:  250 * time.Millisecond,
	}
}

// Update records the presence reported for chatID. audio marks a voice
// note being recorded.
func (t *Tracker) Update(chatID string, composing, audio bool) {
	if chatID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !composing {
		delete(t.chats, chatID)
		return
	}
	t.chats[chatID] = state{composing: true, audio: audio, updatedAt: t.now()}
}

func (t *Tracker) IsComposing(chatID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.chats[chatID]
	if !ok {
		return false
	}
	if t.now().Sub(s.updatedAt) > t.ttl {
		delete(t.chats, chatID)
		return false
	}
	return s.composing
}

// IsRecording reports a voice note in progress.
func (t *Tracker) IsRecording(chatID string) bool {
	if !t.IsComposing(chatID) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chats[chatID].audio
}

// WaitIdle blocks until nobody is typing in chatID or timeout elapses. It
// returns false when it gave up or ctx was cancelled.
func (t *Tracker) WaitIdle(ctx context.Context, chatID string, timeout time.Duration) bool {
	if !t.IsComposing(chatID) {
		return true
	}
	if timeout <= 0 {
		return false
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(t.poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
			if !t.IsComposing(chatID) {
				return true
			}
		}
	}
}
