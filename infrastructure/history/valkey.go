package history

import (
	"context"
	"encoding/json"

	domainHistory "github.com/AzielCF/az-ravena/domains/history"
	"github.com/AzielCF/az-ravena/infrastructure/valkey"
	"github.com/sirupsen/logrus"
)

// ValkeyStore keeps the history in capped Valkey lists so every process
// serving the same bots sees the same summary window.
type ValkeyStore struct {
	client *valkey.Client
	max    int
}

func NewValkeyStore(client *valkey.Client, max int) *ValkeyStore {
	if max <= 0 {
		max = 300
	}
	return &ValkeyStore{client: client, max: max}
}

func (s *ValkeyStore) Append(ctx context.Context, chatID string, entry domainHistory.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.PushCapped(ctx, s.client.Key("history", chatID), string(data), s.max)
}

func (s *ValkeyStore) Recent(ctx context.Context, chatID string, n int) ([]domainHistory.Entry, error) {
	if n <= 0 || n > s.max {
		n = s.max
	}
	raw, err := s.client.Tail(ctx, s.client.Key("history", chatID), n)
	if err != nil {
		return nil, err
	}

	entries := make([]domainHistory.Entry, 0, len(raw))
	for _, item := range raw {
		var e domainHistory.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			logrus.WithError(err).Warnf("[HISTORY] Skipping malformed entry for %s", chatID)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
