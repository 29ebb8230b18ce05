package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/AzielCF/az-ravena/pkg/timeutils"
)

type analyticsService struct {
	repo loadreport.IReportRepository
	now  func() time.Time
}

func NewAnalyticsService(repo loadreport.IReportRepository) loadreport.IAnalyticsUsecase {
	return &analyticsService{repo: repo, now: time.Now}
}

// bucketer places a report in one of n buckets.
type bucketer struct {
	labels []string
	bucket func(t time.Time) int
	// occurrences counts how many calendar days of the window fall in each bucket.
	occurrences []int
}

func (s *analyticsService) GetAnalytics(ctx context.Context, period string, botIDs []string) (loadreport.Analytics, error) {
	now := s.now()
	start := timeutils.PeriodStart(period, now)
	reports, err := s.repo.GetReports(ctx, start, botIDs)
	if err != nil {
		return loadreport.Analytics{}, fmt.Errorf("load reports: %w", err)
	}

	days := timeutils.DaysBetween(start, now)
	bots := botIDs
	if len(bots) == 0 {
		bots = botsIn(reports)
	}
	byBot := make(map[string][]loadreport.Report, len(bots))
	for _, r := range reports {
		byBot[r.BotID] = append(byBot[r.BotID], r)
	}

	hourly := hourBuckets(days)
	weekly := weekdayBuckets(days)
	monthly := monthDayBuckets(days)

	out := loadreport.Analytics{
		Daily:   loadreport.DailyChart{Hours: hourly.labels, Values: hourly.average(reports)},
		Weekly:  loadreport.DayChart{Days: weekly.labels, Values: weekly.average(reports)},
		Monthly: loadreport.DayChart{Days: monthly.labels, Values: monthly.average(reports)},
	}
	dates, yearly := dailyTotals(days, reports)
	out.Yearly = loadreport.YearlyChart{Dates: dates, Values: yearly}

	for _, id := range bots {
		own := byBot[id]
		out.Daily.Series = append(out.Daily.Series, loadreport.Series{Name: id, Data: hourly.average(own)})
		out.Weekly.Series = append(out.Weekly.Series, loadreport.Series{Name: id, Data: weekly.average(own)})
		out.Monthly.Series = append(out.Monthly.Series, loadreport.Series{Name: id, Data: monthly.average(own)})
		_, totals := dailyTotals(days, own)
		out.Yearly.Series = append(out.Yearly.Series, loadreport.Series{Name: id, Data: totals})
	}
	return out, nil
}

// average sums the traffic per bucket and divides it by the days the window
// spends in that bucket.
func (b bucketer) average(reports []loadreport.Report) []float64 {
	sums := make([]float64, len(b.labels))
	for _, r := range reports {
		sums[b.bucket(r.PeriodStart.Local())] += float64(r.Total())
	}
	for i := range sums {
		if b.occurrences[i] > 0 {
			sums[i] = round2(sums[i] / float64(b.occurrences[i]))
		}
	}
	return sums
}

func hourBuckets(days []time.Time) bucketer {
	b := bucketer{
		labels:      make([]string, 24),
		bucket:      func(t time.Time) int { return t.Hour() },
		occurrences: make([]int, 24),
	}
	for h := range 24 {
		b.labels[h] = fmt.Sprintf("%02d", h)
		b.occurrences[h] = len(days)
	}
	return b
}

func weekdayBuckets(days []time.Time) bucketer {
	b := bucketer{
		labels:      timeutils.WeekdayLabels(),
		bucket:      func(t time.Time) int { return int(t.Weekday()) },
		occurrences: make([]int, 7),
	}
	for _, d := range days {
		b.occurrences[d.Weekday()]++
	}
	return b
}

func monthDayBuckets(days []time.Time) bucketer {
	b := bucketer{
		labels:      make([]string, 31),
		bucket:      func(t time.Time) int { return t.Day() - 1 },
		occurrences: make([]int, 31),
	}
	for i := range b.labels {
		b.labels[i] = strconv.Itoa(i + 1)
	}
	for _, d := range days {
		b.occurrences[d.Day()-1]++
	}
	return b
}

// dailyTotals returns one total per calendar day of the window.
func dailyTotals(days []time.Time, reports []loadreport.Report) ([]string, []float64) {
	labels := make([]string, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		labels[i] = d.Format(time.DateOnly)
		index[labels[i]] = i
	}
	values := make([]float64, len(days))
	for _, r := range reports {
		if i, ok := index[r.PeriodStart.Local().Format(time.DateOnly)]; ok {
			values[i] += float64(r.Total())
		}
	}
	return labels, values
}

func botsIn(reports []loadreport.Report) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range reports {
		if _, ok := seen[r.BotID]; ok {
			continue
		}
		seen[r.BotID] = struct{}{}
		out = append(out, r.BotID)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
