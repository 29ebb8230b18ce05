package loadreport

import (
	"context"
	"time"
)

// Report is one persisted counting window of a bot.
type Report struct {
	BotID           string    `json:"botId"`
	PeriodStart     time.Time `json:"periodStart"`
	PeriodEnd       time.Time `json:"periodEnd"`
	ReceivedGroup   int       `json:"receivedGroup"`
	ReceivedPrivate int       `json:"receivedPrivate"`
	SentGroup       int       `json:"sentGroup"`
	SentPrivate     int       `json:"sentPrivate"`
}

func (r Report) Received() int { return r.ReceivedGroup + r.ReceivedPrivate }
func (r Report) Sent() int     { return r.SentGroup + r.SentPrivate }
func (r Report) Total() int    { return r.Received() + r.Sent() }

type IReportRepository interface {
	SaveReport(ctx context.Context, report Report) error
	// GetReports returns reports that ended after since; empty botIDs means all bots.
	GetReports(ctx context.Context, since time.Time, botIDs []string) ([]Report, error)
}

type Series struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

type DailyChart struct {
	Hours  []string  `json:"hours"`
	Values []float64 `json:"values"`
	Series []Series  `json:"series"`
}

type DayChart struct {
	Days   []string  `json:"days"`
	Values []float64 `json:"values"`
	Series []Series  `json:"series"`
}

type YearlyChart struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
	Series []Series  `json:"series"`
}

type Analytics struct {
	Daily   DailyChart  `json:"daily"`
	Weekly  DayChart    `json:"weekly"`
	Monthly DayChart    `json:"monthly"`
	Yearly  YearlyChart `json:"yearly"`
}

type IAnalyticsUsecase interface {
	GetAnalytics(ctx context.Context, period string, botIDs []string) (Analytics, error)
}

// ILoadTracker counts traffic per bot.
type ILoadTracker interface {
	TrackReceived(botID string, isGroup bool)
	TrackSent(botID string, isGroup bool)
}
