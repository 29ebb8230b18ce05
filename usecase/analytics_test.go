package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadreportFixture(start time.Time, group, private int) loadreport.Report {
	return loadreport.Report{
		BotID:           "a",
		PeriodStart:     start,
		PeriodEnd:       start.Add(10 * time.Minute),
		ReceivedGroup:   group,
		ReceivedPrivate: private,
	}
}

func seedReports(t *testing.T, repo loadreport.IReportRepository, reports ...loadreport.Report) {
	t.Helper()
	for _, r := range reports {
		require.NoError(t, repo.SaveReport(context.Background(), r))
	}
}

func report(bot string, start time.Time, received, sent int) loadreport.Report {
	return loadreport.Report{
		BotID:         bot,
		PeriodStart:   start,
		PeriodEnd:     start.Add(10 * time.Minute),
		ReceivedGroup: received,
		SentGroup:     sent,
	}
}

func TestAnalytics_Today(t *testing.T) {
	store := newStore(t)
	now := time.Date(2025, 3, 15, 18, 0, 0, 0, time.Local)
	seedReports(t, store,
		report("a", time.Date(2025, 3, 15, 10, 0, 0, 0, time.Local), 3, 2),
		report("b", time.Date(2025, 3, 15, 10, 30, 0, 0, time.Local), 3, 0),
		report("a", time.Date(2025, 3, 15, 14, 0, 0, 0, time.Local), 1, 0),
		report("a", time.Date(2025, 3, 13, 14, 0, 0, 0, time.Local), 100, 0),
	)
	svc := &analyticsService{repo: store, now: func() time.Time { return now }}

	got, err := svc.GetAnalytics(context.Background(), "today", nil)
	require.NoError(t, err)

	require.Len(t, got.Daily.Hours, 24)
	assert.Equal(t, "10", got.Daily.Hours[10])
	assert.Equal(t, 8.0, got.Daily.Values[10])
	assert.Equal(t, 1.0, got.Daily.Values[14])
	require.Len(t, got.Daily.Series, 2)
	assert.Equal(t, "a", got.Daily.Series[0].Name)
	assert.Equal(t, 5.0, got.Daily.Series[0].Data[10])
	assert.Equal(t, 3.0, got.Daily.Series[1].Data[10])

	assert.Equal(t, []string{"2025-03-15"}, got.Yearly.Dates)
	assert.Equal(t, []float64{9}, got.Yearly.Values)
}

func TestAnalytics_WeekAveragesPerWeekday(t *testing.T) {
	store := newStore(t)
	now := time.Date(2025, 3, 15, 18, 0, 0, 0, time.Local)
	seedReports(t, store,
		report("a", time.Date(2025, 3, 15, 9, 0, 0, 0, time.Local), 6, 0),
		report("a", time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local), 4, 0),
		report("b", time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local), 3, 0),
	)
	svc := &analyticsService{repo: store, now: func() time.Time { return now }}

	got, err := svc.GetAnalytics(context.Background(), "week", []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}, got.Weekly.Days)
	assert.Equal(t, 4.0, got.Weekly.Values[time.Friday])
	assert.Equal(t, 6.0, got.Weekly.Values[time.Saturday])
	require.Len(t, got.Weekly.Series, 1)

	// Hour 9 saw 10 messages over a 7 day window.
	assert.Equal(t, 1.43, got.Daily.Values[9])
	assert.Len(t, got.Yearly.Dates, 7)
	assert.Equal(t, "2025-03-09", got.Yearly.Dates[0])
	assert.Equal(t, 4.0, got.Yearly.Values[5])

	require.Len(t, got.Monthly.Days, 31)
	assert.Equal(t, 6.0, got.Monthly.Values[14])
}
