package usecase

import (
	"context"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/health"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/AzielCF/az-ravena/pkg/timeutils"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const (
	StatusActive       = "🟢"
	StatusAlert        = "🟡"
	StatusAttention    = "🟠"
	StatusInactive     = "🔴"
	StatusDisconnected = "⚫"
)

// liveCounter exposes the traffic not yet persisted.
type liveCounter interface {
	Current(botID string) loadreport.Report
}

type healthService struct {
	registry domainBot.IBotRegistry
	reports  loadreport.IReportRepository
	live     liveCounter
	started  time.Time
	now      func() time.Time
}

// NewHealthService reports the state of every bot. reports and live may be nil.
func NewHealthService(registry domainBot.IBotRegistry, reports loadreport.IReportRepository, live *LoadReporter) health.IHealthUsecase {
	s := &healthService{
		registry: registry,
		reports:  reports,
		started:  time.Now(),
		now:      time.Now,
	}
	if live != nil {
		s.live = live
	}
	return s
}

// StatusEmoji classifies a bot by how long ago it last received a message.
// A zero last means it never did.
func StatusEmoji(connected bool, last, now time.Time) string {
	if !connected {
		return StatusDisconnected
	}
	if last.IsZero() {
		return StatusInactive
	}
	switch idle := now.Sub(last); {
	case idle < 2*time.Minute:
		return StatusActive
	case idle < 5*time.Minute:
		return StatusAlert
	case idle < 15*time.Minute:
		return StatusAttention
	default:
		return StatusInactive
	}
}

func (s *healthService) GetHealth(ctx context.Context) (health.Report, error) {
	now := s.now()
	hourly := s.receivedLastHour(ctx, now)

	bots := s.registry.List()
	out := health.Report{
		Status:    "ok",
		Timestamp: now.UnixMilli(),
		Uptime:    timeutils.FormatUptime(now.Sub(s.started)),
		Bots:      make([]health.BotStatus, 0, len(bots)),
	}
	for _, b := range bots {
		last := b.LastMessageReceived()
		status := health.BotStatus{
			ID:          b.ID(),
			PhoneNumber: b.PhoneNumber(),
			Connected:   b.IsConnected(),
			MsgsHr:      hourly[b.ID()],
			Status:      StatusEmoji(b.IsConnected(), last, now),
		}
		if !last.IsZero() {
			status.LastMessageReceived = last.UnixMilli()
			status.LastMessageAgo = humanize.RelTime(last, now, "ago", "from now")
		}
		if started := b.StartedAt(); !started.IsZero() && b.IsConnected() {
			status.Uptime = timeutils.FormatUptime(now.Sub(started))
		}
		out.Bots = append(out.Bots, status)
	}
	return out, nil
}

// receivedLastHour sums the inbound messages per bot over the last hour,
// counting persisted reports and the open window.
func (s *healthService) receivedLastHour(ctx context.Context, now time.Time) map[string]int {
	out := make(map[string]int)
	if s.reports != nil {
		reports, err := s.reports.GetReports(ctx, now.Add(-time.Hour), nil)
		if err != nil {
			logrus.WithError(err).Warn("[HEALTH] Could not read load reports")
		}
		for _, r := range reports {
			out[r.BotID] += r.Received()
		}
	}
	if s.live != nil {
		for _, b := range s.registry.List() {
			out[b.ID()] += s.live.Current(b.ID()).Received()
		}
	}
	return out
}
