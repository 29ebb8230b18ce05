package invite

import (
	"context"
	"time"
)

// PendingJoin remembers who asked the bot into a group until the join event arrives.
type PendingJoin struct {
	Code       string    `json:"code"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Timestamp  time.Time `json:"timestamp"`
}

// InviteRequest is an invite link received in private, waiting for a reason.
type InviteRequest struct {
	Code       string    `json:"code"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	GroupName  string    `json:"groupName"`
	BotID      string    `json:"botId"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type IInviteRepository interface {
	GetPendingJoins(ctx context.Context) ([]PendingJoin, error)
	SavePendingJoin(ctx context.Context, join PendingJoin) error
	RemovePendingJoin(ctx context.Context, code string) error
}
