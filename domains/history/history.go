package history

import (
	"context"
	"time"
)

// Entry is one stored group message used to build summaries.
type Entry struct {
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// IHistoryStore keeps the most recent messages of each group chat.
type IHistoryStore interface {
	Append(ctx context.Context, chatID string, entry Entry) error
	Recent(ctx context.Context, chatID string, n int) ([]Entry, error)
}
