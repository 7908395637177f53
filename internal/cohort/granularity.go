package cohort

import (
	"fmt"
	"time"
)

// Granularity is the acquisition-period size cohorts are bucketed by.
type Granularity string

const (
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

var validGranularities = map[Granularity]bool{
	GranularityWeek:    true,
	GranularityMonth:   true,
	GranularityQuarter: true,
	GranularityYear:    true,
}

// ParseGranularity validates a raw granularity string. Empty means month.
func ParseGranularity(s string) (Granularity, error) {
	if s == "" {
		return GranularityMonth, nil
	}
	g := Granularity(s)
	if !validGranularities[g] {
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
	return g, nil
}

// periodStart truncates a timestamp to the start of its period in UTC.
// Weeks start on Monday; quarters on Jan/Apr/Jul/Oct 1.
func periodStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityQuarter:
		month := time.Month(((int(t.Month())-1)/3)*3 + 1)
		return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
	case GranularityYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// nextPeriod advances a period start by one period.
func nextPeriod(start time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityQuarter:
		return start.AddDate(0, 3, 0)
	case GranularityYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// periodIndex returns the relative period of t counted from cohortStart
// (period 0 = acquisition period). Returns -1 for t before cohortStart.
func periodIndex(cohortStart, t time.Time, g Granularity) int {
	if t.Before(cohortStart) {
		return -1
	}
	idx := 0
	cursor := nextPeriod(cohortStart, g)
	for !t.Before(cursor) {
		idx++
		cursor = nextPeriod(cursor, g)
	}
	return idx
}
