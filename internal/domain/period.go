package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// MaxEntryAgeYears bounds how far back an entry may be dated.
const MaxEntryAgeYears = 10

// MaxPeriodLeadYears bounds how far past today a requested period may end.
const MaxPeriodLeadYears = 1

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date.
func Today() time.Time {
	return Day(time.Now().UTC())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// EarliestEntryDate is the oldest date an entry may carry relative to today.
func EarliestEntryDate(today time.Time) time.Time {
	return Day(today).AddDate(-MaxEntryAgeYears, 0, 0)
}

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewPeriod builds a period from two dates.
func NewPeriod(start, end time.Time) (Period, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidPeriod, end.Format(DateLayout), start.Format(DateLayout))
	}
	return Period{Start: start, End: end}, nil
}

// LastNDays returns the n-day period ending today (inclusive of both ends).
func LastNDays(today time.Time, n int) Period {
	today = Day(today)
	return Period{Start: today.AddDate(0, 0, -n), End: today}
}

// Named period keys.
const (
	PeriodLastDay      = "last_day"
	PeriodLast7Days    = "last_7_days"
	PeriodLast30Days   = "last_30_days"
	PeriodLast90Days   = "last_90_days"
	PeriodLast365Days  = "last_365_days"
	PeriodCurrentMonth = "current_month"
	PeriodCurrentYear  = "current_year"
	PeriodAllTime      = "all_time"
)

// DefaultPeriodKey is used when no period is requested.
const DefaultPeriodKey = PeriodLast30Days

// ParsePeriod resolves a named period relative to today.
func ParsePeriod(key string, today time.Time) (Period, error) {
	today = Day(today)

	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", PeriodLast30Days:
		return LastNDays(today, 30), nil
	case PeriodLastDay:
		return LastNDays(today, 1), nil
	case PeriodLast7Days:
		return LastNDays(today, 7), nil
	case PeriodLast90Days:
		return LastNDays(today, 90), nil
	case PeriodLast365Days:
		return LastNDays(today, 365), nil
	case PeriodCurrentMonth:
		return Period{Start: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), End: today}, nil
	case PeriodCurrentYear:
		return Period{Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), End: today}, nil
	case PeriodAllTime:
		return Period{Start: EarliestEntryDate(today), End: today}, nil
	default:
		return Period{}, fmt.Errorf("%w: unknown period %q", ErrInvalidPeriod, key)
	}
}

// Bounded fits the period to the dates entries can carry. The start is
// clamped to EarliestEntryDate; an end more than MaxPeriodLeadYears after
// today, or before the earliest entry date, is rejected.
func (p Period) Bounded(today time.Time) (Period, error) {
	today = Day(today)

	if latest := today.AddDate(MaxPeriodLeadYears, 0, 0); p.End.After(latest) {
		return Period{}, fmt.Errorf("%w: end %s is after %s", ErrInvalidPeriod, p.End.Format(DateLayout), latest.Format(DateLayout))
	}

	earliest := EarliestEntryDate(today)
	if p.End.Before(earliest) {
		return Period{}, fmt.Errorf("%w: end %s is before %s", ErrInvalidPeriod, p.End.Format(DateLayout), earliest.Format(DateLayout))
	}
	if p.Start.Before(earliest) {
		p.Start = earliest
	}

	return p, nil
}

// Days lists every date in the period, oldest first.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	date = Day(date)
	return !date.Before(p.Start) && !date.After(p.End)
}

func (p Period) String() string {
	return p.Start.Format(DateLayout) + "_" + p.End.Format(DateLayout)
}
