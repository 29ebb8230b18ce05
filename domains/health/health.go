package health

import "context"

type BotStatus struct {
	ID                  string `json:"id"`
	PhoneNumber         string `json:"phoneNumber"`
	Connected           bool   `json:"connected"`
	LastMessageReceived int64  `json:"lastMessageReceived"`
	LastMessageAgo      string `json:"lastMessageAgo"`
	MsgsHr              int    `json:"msgsHr"`
	Status              string `json:"status"`
	Uptime              string `json:"uptime"`
}

type Report struct {
	Status    string      `json:"status"`
	Timestamp int64       `json:"timestamp"`
	Uptime    string      `json:"uptime"`
	Bots      []BotStatus `json:"bots"`
}

type IHealthUsecase interface {
	GetHealth(ctx context.Context) (Report, error)
}
