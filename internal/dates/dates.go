/*
Package dates resolves which calendar days a run has to process.
*/
package dates

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WindowDays is how far back, in days, the portal publishes announcements.
const WindowDays = 8 * 7

// ErrNoUnsavedDate is returned by ModeOldestUnsaved when every day of the
// window is already cached.
var ErrNoUnsavedDate = errors.New("no unsaved date in the retention window")

// ConfigurationError reports an invalid combination of date options.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// Mode selects how the day range is derived.
type Mode int

const (
	ModeToday Mode = iota
	ModeRange
	ModeYesterday
	ModeAll
	ModeOldestUnsaved
)

func (m Mode) String() string {
	switch m {
	case ModeToday:
		return "today"
	case ModeRange:
		return "range"
	case ModeYesterday:
		return "yesterday"
	case ModeAll:
		return "all"
	case ModeOldestUnsaved:
		return "oldest-unsaved"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Request describes the user's intent. Start and End are only read in ModeRange.
type Request struct {
	Mode  Mode
	Start time.Time
	End   time.Time
}

// CacheChecker is the part of the cache the resolver needs.
type CacheChecker interface {
	Exists(ctx context.Context, day time.Time) (bool, error)
}

// Resolver turns a Request into an ascending list of days.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a resolver. A nil clock defaults to time.Now.
func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

// Today returns the current day at midnight UTC.
func (r *Resolver) Today() time.Time {
	return Day(r.now())
}

// Earliest is the oldest day still inside the retention window.
func (r *Resolver) Earliest() time.Time {
	return r.Today().AddDate(0, 0, -WindowDays)
}

// Resolve returns the inclusive, ascending list of days for req. The cache is
// only consulted in ModeOldestUnsaved.
func (r *Resolver) Resolve(ctx context.Context, req Request, cache CacheChecker) ([]time.Time, error) {
	today := r.Today()
	earliest := r.Earliest()

	var start, end time.Time
	switch req.Mode {
	case ModeToday:
		start, end = today, today
	case ModeYesterday:
		start = today.AddDate(0, 0, -1)
		end = start
	case ModeAll:
		start, end = earliest, today
	case ModeRange:
		if req.Start.IsZero() && req.End.IsZero() {
			return nil, &ConfigurationError{Msg: "date range needs a start or an end date"}
		}
		start, end = Day(req.Start), Day(req.End)
		if req.Start.IsZero() {
			start = end
		}
		if req.End.IsZero() {
			end = start
		}
	case ModeOldestUnsaved:
		day, err := r.oldestUnsaved(ctx, cache)
		if err != nil {
			return nil, err
		}
		return []time.Time{day}, nil
	default:
		return nil, &ConfigurationError{Msg: fmt.Sprintf("unknown date mode %d", int(req.Mode))}
	}

	if start.Before(earliest) {
		start = earliest
	}
	if end.After(today) {
		end = today
	}
	if start.After(end) {
		return nil, &ConfigurationError{Msg: fmt.Sprintf(
			"start date %s is after end date %s (window %s to %s)",
			start.Format(layoutISO), end.Format(layoutISO), earliest.Format(layoutISO), today.Format(layoutISO),
		)}
	}

	return Span(start, end), nil
}

func (r *Resolver) oldestUnsaved(ctx context.Context, cache CacheChecker) (time.Time, error) {
	if cache == nil {
		return time.Time{}, &ConfigurationError{Msg: "oldest unsaved mode needs a cache"}
	}

	for _, day := range Span(r.Earliest(), r.Today()) {
		exists, err := cache.Exists(ctx, day)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to check cache for %s: %w", day.Format(layoutISO), err)
		}
		if !exists {
			return day, nil
		}
	}

	return time.Time{}, ErrNoUnsavedDate
}

// Span lists every day from start to end inclusive.
func Span(start, end time.Time) []time.Time {
	var days []time.Time
	for d := Day(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
