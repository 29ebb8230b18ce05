package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), PeriodStart(PeriodToday, now))
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), PeriodStart(PeriodWeek, now))
	assert.Equal(t, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), PeriodStart(PeriodMonth, now))
	assert.Equal(t, PeriodStart(PeriodWeek, now), PeriodStart("whatever", now))
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2025, 2, 27, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)

	days := DaysBetween(start, end)
	assert.Len(t, days, 4)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), days[2])
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "42s", FormatUptime(42*time.Second))
	assert.Equal(t, "3m 5s", FormatUptime(3*time.Minute+5*time.Second))
	assert.Equal(t, "1d 2h 0m 0s", FormatUptime(26*time.Hour))
}

func TestWeekdayLabels(t *testing.T) {
	labels := WeekdayLabels()
	assert.Equal(t, "Dom", labels[time.Sunday])
	assert.Equal(t, "Sáb", labels[time.Saturday])
}
