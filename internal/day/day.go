// Package day normalizes timestamps to calendar days.
//
// Every ledger write and every range filter goes through Normalize, so the
// (student, subject, date) key is the same for any two submissions made on the
// same calendar day regardless of their wall-clock component. A normalized day
// is represented as midnight UTC of that calendar date.
package day

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format of a calendar day.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var (
	// ErrMissing is returned when a required date is empty.
	ErrMissing = errors.New("date is required")
	// ErrInverted is returned when a range ends before it starts.
	ErrInverted = errors.New("end date is before start date")
)

var zonedLayouts = []string{time.RFC3339Nano}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	Layout,
}

// Normalize returns the calendar day t falls on in loc, as midnight UTC.
func Normalize(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse reads a date or timestamp and normalizes it. Values without a zone
// offset are read as wall-clock time in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissing
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range zonedLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return Normalize(t, loc), nil
		}
	}
	for _, l := range localLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return Normalize(t, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Key formats a normalized day for grouping and display.
func Key(d time.Time) string {
	return d.UTC().Format(Layout)
}

// Today is Normalize(now, loc).
func Today(now time.Time, loc *time.Location) time.Time {
	return Normalize(now, loc)
}

// Range is an inclusive span of normalized days.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange normalizes both ends and rejects inverted spans.
func NewRange(start, end time.Time, loc *time.Location) (Range, error) {
	r := Range{Start: Normalize(start, loc), End: Normalize(end, loc)}
	if r.End.Before(r.Start) {
		return Range{}, ErrInverted
	}
	return r, nil
}

// ParseRange parses both ends. Both are required.
func ParseRange(start, end string, loc *time.Location) (Range, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return Range{}, fmt.Errorf("start and end: %w", ErrMissing)
	}
	s, err := Parse(start, loc)
	if err != nil {
		return Range{}, fmt.Errorf("start: %w", err)
	}
	e, err := Parse(end, loc)
	if err != nil {
		return Range{}, fmt.Errorf("end: %w", err)
	}
	return NewRange(s, e, time.UTC)
}

// LastN returns the n days ending at (and including) end.
func LastN(end time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	return Range{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// Contains reports whether the normalized day d lies within r.
func (r Range) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Len is the number of calendar days in r. Both ends are midnight UTC, so
// whole days are counted on Unix seconds, which do not saturate the way a
// Duration does past about 292 years.
func (r Range) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int((r.End.Unix()-r.Start.Unix())/secondsPerDay) + 1
}

// Days enumerates every calendar day in r, oldest first.
func (r Range) Days() []time.Time {
	out := make([]time.Time, 0, r.Len())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Filter returns the days of r whose weekday is in keep. An empty keep set
// returns every day.
func (r Range) Filter(keep map[time.Weekday]bool) []time.Time {
	days := r.Days()
	if len(keep) == 0 {
		return days
	}
	out := days[:0]
	for _, d := range days {
		if keep[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

// Weekdays parses English weekday names ("Monday", "tue") into a set.
// Unknown names are ignored.
func Weekdays(names []string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if len(n) < 3 {
			continue
		}
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if strings.HasPrefix(strings.ToLower(wd.String()), n[:3]) {
				set[wd] = true
				break
			}
		}
	}
	return set
}
