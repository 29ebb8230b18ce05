package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/AzielCF/az-ravena/domains/message"
	"github.com/AzielCF/az-ravena/pkg/timeutils"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const msgLoadReport = "📊 *Relatório de carga* - %s\n⏱️ %s a %s\n📥 Recebidas: %s (grupos %s, privado %s)\n📤 Enviadas: %s (grupos %s, privado %s)"

// LoadReporter counts the traffic of every bot and persists one report per
// bot each interval.
type LoadReporter struct {
	repo     loadreport.IReportRepository
	registry domainBot.IBotRegistry
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	start    time.Time
	counters map[string]*loadreport.Report
}

var _ loadreport.ILoadTracker = (*LoadReporter)(nil)

// NewLoadReporter builds a reporter. When registry is set, every flush also
// posts a summary to the logs group of each bot.
func NewLoadReporter(repo loadreport.IReportRepository, registry domainBot.IBotRegistry, interval time.Duration) *LoadReporter {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	r := &LoadReporter{
		repo:     repo,
		registry: registry,
		interval: interval,
		now:      time.Now,
		counters: make(map[string]*loadreport.Report),
	}
	r.start = r.now()
	return r
}

func (r *LoadReporter) counter(botID string) *loadreport.Report {
	c, ok := r.counters[botID]
	if !ok {
		c = &loadreport.Report{BotID: botID}
		r.counters[botID] = c
	}
	return c
}

func (r *LoadReporter) TrackReceived(botID string, isGroup bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.counter(botID)
	if isGroup {
		c.ReceivedGroup++
	} else {
		c.ReceivedPrivate++
	}
}

func (r *LoadReporter) TrackSent(botID string, isGroup bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.counter(botID)
	if isGroup {
		c.SentGroup++
	} else {
		c.SentPrivate++
	}
}

// Current returns the counts of botID in the window not yet flushed.
func (r *LoadReporter) Current(botID string) loadreport.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := loadreport.Report{BotID: botID, PeriodStart: r.start, PeriodEnd: r.now()}
	if c, ok := r.counters[botID]; ok {
		out.ReceivedGroup, out.ReceivedPrivate = c.ReceivedGroup, c.ReceivedPrivate
		out.SentGroup, out.SentPrivate = c.SentGroup, c.SentPrivate
	}
	return out
}

// Run flushes every interval until ctx is done, then flushes once more.
func (r *LoadReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if _, err := r.Flush(context.Background()); err != nil {
				logrus.WithError(err).Warn("[LOAD_REPORT] Final flush failed")
			}
			return
		case <-ticker.C:
			reports, err := r.Flush(ctx)
			if err != nil {
				logrus.WithError(err).Warn("[LOAD_REPORT] Flush failed")
			}
			r.announce(ctx, reports)
		}
	}
}

// Flush closes the current window and saves one report per known bot,
// including bots that had no traffic.
func (r *LoadReporter) Flush(ctx context.Context) ([]loadreport.Report, error) {
	r.mu.Lock()
	end := r.now()
	start := r.start
	counters := r.counters
	r.start = end
	r.counters = make(map[string]*loadreport.Report, len(counters))
	r.mu.Unlock()

	if r.registry != nil {
		for _, b := range r.registry.List() {
			if _, ok := counters[b.ID()]; !ok {
				counters[b.ID()] = &loadreport.Report{BotID: b.ID()}
			}
		}
	}

	ids := make([]string, 0, len(counters))
	for id := range counters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	reports := make([]loadreport.Report, 0, len(ids))
	var firstErr error
	for _, id := range ids {
		report := *counters[id]
		report.PeriodStart, report.PeriodEnd = start, end
		if r.repo != nil {
			if err := r.repo.SaveReport(ctx, report); err != nil {
				logrus.WithError(err).WithField("bot_id", id).Warn("[LOAD_REPORT] Could not save report")
				if firstErr == nil {
					firstErr = fmt.Errorf("save report of %s: %w", id, err)
				}
				continue
			}
		}
		reports = append(reports, report)
	}
	logrus.Debugf("[LOAD_REPORT] Flushed %d reports", len(reports))
	return reports, firstErr
}

func (r *LoadReporter) announce(ctx context.Context, reports []loadreport.Report) {
	if r.registry == nil {
		return
	}
	for _, report := range reports {
		b, ok := r.registry.Get(report.BotID)
		if !ok || !b.IsConnected() || b.Community().Logs == "" || report.Total() == 0 {
			continue
		}
		if _, err := b.SendMessage(ctx, b.Community().Logs, message.TextContent(FormatLoadReport(report)), message.SendOptions{}); err != nil {
			logrus.WithError(err).WithField("bot_id", report.BotID).Debug("[LOAD_REPORT] Could not post summary")
		}
	}
}

// FormatLoadReport renders report for the logs group.
func FormatLoadReport(report loadreport.Report) string {
	return fmt.Sprintf(msgLoadReport,
		report.BotID,
		report.PeriodStart.Format("15:04"), report.PeriodEnd.Format("15:04"),
		humanize.Comma(int64(report.Received())), humanize.Comma(int64(report.ReceivedGroup)), humanize.Comma(int64(report.ReceivedPrivate)),
		humanize.Comma(int64(report.Sent())), humanize.Comma(int64(report.SentGroup)), humanize.Comma(int64(report.SentPrivate)),
	) + "\n🕐 " + timeutils.FormatNotice(report.PeriodEnd)
}
