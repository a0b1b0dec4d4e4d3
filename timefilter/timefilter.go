// ABOUTME: Date range filters for the contact timeline
// ABOUTME: Fixed calendar ranges, rolling day windows and custom start/end bounds
package timefilter

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindFixed   Kind = "fixed"
	KindRolling Kind = "rolling"
	KindCustom  Kind = "custom"
)

// ErrUnknownRange is returned for a range name the filter kind does not know.
var ErrUnknownRange = errors.New("unknown time range")

var rollingDays = map[string]int{
	"last_7_days":   7,
	"last_14_days":  14,
	"last_30_days":  30,
	"last_60_days":  60,
	"last_90_days":  90,
	"last_180_days": 180,
	"last_365_days": 365,
}

var fixedRanges = map[string]bool{
	"all": true, "today": true, "yesterday": true,
	"this_week": true, "last_week": true,
	"this_month": true, "last_month": true,
	"this_quarter": true, "last_quarter": true,
	"this_year": true, "last_year": true,
}

// Filter selects a date window. The zero Filter matches everything.
type Filter struct {
	Kind  Kind
	Range string
	Start *time.Time
	End   *time.Time
}

// Parse builds a filter from its query parameter form. Custom bounds accept
// RFC 3339 timestamps or plain dates; a plain end date covers the whole day.
func Parse(kind, rng, start, end string) (Filter, error) {
	switch Kind(kind) {
	case "":
		return Filter{}, nil
	case KindFixed:
		if rng == "" {
			rng = "all"
		}
		if !fixedRanges[rng] {
			return Filter{}, fmt.Errorf("%w: %q", ErrUnknownRange, rng)
		}
		return Filter{Kind: KindFixed, Range: rng}, nil
	case KindRolling:
		if _, ok := rollingDays[rng]; !ok {
			return Filter{}, fmt.Errorf("%w: %q", ErrUnknownRange, rng)
		}
		return Filter{Kind: KindRolling, Range: rng}, nil
	case KindCustom:
		f := Filter{Kind: KindCustom}
		if start != "" {
			t, _, err := parseBound(start)
			if err != nil {
				return Filter{}, fmt.Errorf("invalid start: %w", err)
			}
			f.Start = &t
		}
		if end != "" {
			t, dateOnly, err := parseBound(end)
			if err != nil {
				return Filter{}, fmt.Errorf("invalid end: %w", err)
			}
			if dateOnly {
				t = endOfDay(t)
			}
			f.End = &t
		}
		if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
			return Filter{}, errors.New("end is before start")
		}
		return f, nil
	}
	return Filter{}, fmt.Errorf("unknown filter type %q", kind)
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	return t, true, err
}

// Window is an inclusive date range; a nil bound is open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

func (w Window) Open() bool { return w.Start == nil && w.End == nil }

func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Window resolves the filter against now. Calendar ranges use now's location
// and weeks start on Sunday.
func (f Filter) Window(now time.Time) Window {
	switch f.Kind {
	case KindCustom:
		return Window{Start: f.Start, End: f.End}
	case KindRolling:
		start := now.AddDate(0, 0, -rollingDays[f.Range])
		return span(start, now)
	case KindFixed:
		return fixedWindow(f.Range, now)
	}
	return Window{}
}

func fixedWindow(rng string, now time.Time) Window {
	today := startOfDay(now)
	switch rng {
	case "today":
		return span(today, endOfDay(today))
	case "yesterday":
		y := today.AddDate(0, 0, -1)
		return span(y, endOfDay(y))
	case "this_week":
		s := startOfWeek(today)
		return span(s, s.AddDate(0, 0, 7).Add(-time.Nanosecond))
	case "last_week":
		s := startOfWeek(today).AddDate(0, 0, -7)
		return span(s, s.AddDate(0, 0, 7).Add(-time.Nanosecond))
	case "this_month":
		s := startOfMonth(today)
		return span(s, s.AddDate(0, 1, 0).Add(-time.Nanosecond))
	case "last_month":
		s := startOfMonth(today).AddDate(0, -1, 0)
		return span(s, s.AddDate(0, 1, 0).Add(-time.Nanosecond))
	case "this_quarter":
		s := startOfQuarter(today)
		return span(s, s.AddDate(0, 3, 0).Add(-time.Nanosecond))
	case "last_quarter":
		s := startOfQuarter(today).AddDate(0, -3, 0)
		return span(s, s.AddDate(0, 3, 0).Add(-time.Nanosecond))
	case "this_year":
		s := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
		return span(s, s.AddDate(1, 0, 0).Add(-time.Nanosecond))
	case "last_year":
		s := time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location())
		return span(s, s.AddDate(1, 0, 0).Add(-time.Nanosecond))
	}
	return Window{}
}

func span(start, end time.Time) Window { return Window{Start: &start, End: &end} }

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	m := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), m, 1, 0, 0, 0, 0, t.Location())
}

// Apply keeps the items whose date falls inside w. Items without a date are
// always kept.
func Apply[T any](items []T, w Window, date func(T) *time.Time) []T {
	if w.Open() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		d := date(item)
		if d == nil || w.Contains(*d) {
			out = append(out, item)
		}
	}
	return out
}
