package timeutils

import (
	"fmt"
	"strings"
	"time"
)

// Period names accepted by the analytics endpoint.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

var weekdayLabels = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// WeekdayLabels returns the short Portuguese weekday names starting on Sunday.
func WeekdayLabels() []string {
	out := make([]string, len(weekdayLabels))
	copy(out, weekdayLabels[:])
	return out
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PeriodStart returns the beginning of the window covered by period,
// relative to now. Unknown periods fall back to the last 7 days.
func PeriodStart(period string, now time.Time) time.Time {
	today := StartOfDay(now)
	switch strings.ToLower(period) {
	case PeriodToday:
		return today
	case PeriodMonth:
		return today.AddDate(0, 0, -29)
	case PeriodYear:
		return today.AddDate(0, 0, -364)
	default:
		return today.AddDate(0, 0, -6)
	}
}

// DaysBetween lists every calendar day from start to end, inclusive.
func DaysBetween(start, end time.Time) []time.Time {
	start = StartOfDay(start)
	end = StartOfDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// FormatNotice renders a timestamp the way bot notices show it.
func FormatNotice(t time.Time) string {
	return t.Format("02/01/2006 15:04:05")
}

// FormatUptime renders a duration as "1d 2h 3m 4s", omitting leading zero units.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
