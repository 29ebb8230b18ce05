package history

import (
	"context"
	"sync"

	domainHistory "github.com/AzielCF/az-ravena/domains/history"
)

// MemoryStore keeps a capped slice of entries per chat.
type MemoryStore struct {
	mu    sync.Mutex
	max   int
	chats map[string][]domainHistory.Entry
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 300
	}
	return &MemoryStore{
		max:   max,
		chats: make(map[string][]domainHistory.Entry),
	}
}

func (m *MemoryStore) Append(ctx context.Context, chatID string, entry domainHistory.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := append(m.chats[chatID], entry)
	if len(entries) > m.max {
		entries = append([]domainHistory.Entry(nil), entries[len(entries)-m.max:]...)
	}
	m.chats[chatID] = entries
	return nil
}

func (m *MemoryStore) Recent(ctx context.Context, chatID string, n int) ([]domainHistory.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.chats[chatID]
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]domainHistory.Entry, len(entries))
	copy(out, entries)
	return out, nil
}
