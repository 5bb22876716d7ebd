package schedule

import (
	"time"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
)

// NextReportTime returns the unix time of the next report for s, relative to now.
//
// Weekly schedules use Day as a weekday (Monday is 1, Sunday is 7), fortnightly ones as a day of month
// modulo 14. Monthly, quarterly and yearly schedules count Day from the first of the month
// one, three or twelve months ahead. Days past 31, 93 or 365 respectively fall back to the
// last day of the month before the second period. Daily, weekly and fortnightly schedules
// always land after now.
func NextReportTime(s domain.Schedule, now time.Time) int64 {
	day := 1
	if s.Day > 0 {
		day = s.Day
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, now.Location())
	if hour, minute, ok := parseTimeOfDay(s.Time); ok {
		next = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, now.Location())
	}

	offset := day - next.Day()

	switch s.Interval {
	case domain.IntervalYearly:
		if offset > 365 {
			next = next.AddDate(2, 0, -next.Day())
		} else {
			next = next.AddDate(1, 0, offset)
		}
	case domain.IntervalQuarterly:
		if offset > 93 {
			next = next.AddDate(0, 6, -next.Day())
		} else {
			next = next.AddDate(0, 3, offset)
		}
	case domain.IntervalMonthly:
		if offset > 31 {
			next = next.AddDate(0, 2, -next.Day())
		} else {
			next = next.AddDate(0, 1, offset)
		}
	case domain.IntervalFortnightly:
		next = next.AddDate(0, 0, ((day-next.Day())%14+14)%14)
		if !next.After(now) {
			next = next.AddDate(0, 0, 14)
		}
	case domain.IntervalWeekly:
		next = next.AddDate(0, 0, (day%7-int(next.Weekday())+7)%7)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
	default:
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	}

	return next.Unix()
}

// parseTimeOfDay reads HH:MM.
func parseTimeOfDay(s string) (int, int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// ValidTimeOfDay reports whether s is empty or a HH:MM time.
func ValidTimeOfDay(s string) bool {
	if s == "" {
		return true
	}
	_, _, ok := parseTimeOfDay(s)
	return ok
}

// Overdue reports whether the schedule should have been sent by now.
func Overdue(s domain.Schedule, now time.Time) bool {
	return s.NextReportTime > 0 && s.NextReportTime <= now.Unix()
}
