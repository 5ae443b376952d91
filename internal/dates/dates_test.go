package dates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache map[string]bool

func (c fakeCache) Exists(_ context.Context, day time.Time) (bool, error) {
	return c[day.Format(layoutISO)], nil
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 10, 15, 17, 45, 0, 0, time.UTC) }
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveModes(t *testing.T) {
	r := NewResolver(fixedClock())
	ctx := context.Background()

	days, err := r.Resolve(ctx, Request{Mode: ModeToday}, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2026, 10, 15)}, days)

	days, err = r.Resolve(ctx, Request{Mode: ModeYesterday}, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2026, 10, 14)}, days)

	days, err = r.Resolve(ctx, Request{Mode: ModeRange, Start: date(2026, 10, 1), End: date(2026, 10, 3)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2026, 10, 1), date(2026, 10, 2), date(2026, 10, 3)}, days)

	days, err = r.Resolve(ctx, Request{Mode: ModeRange, End: date(2026, 10, 3)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2026, 10, 3)}, days)
}

func TestResolveAllCoversWindow(t *testing.T) {
	r := NewResolver(fixedClock())

	days, err := r.Resolve(context.Background(), Request{Mode: ModeAll}, nil)
	require.NoError(t, err)

	require.Len(t, days, WindowDays+1)
	assert.Equal(t, date(2026, 8, 20), days[0])
	assert.Equal(t, date(2026, 10, 15), days[len(days)-1])
}

func TestResolveClampsToWindow(t *testing.T) {
	r := NewResolver(fixedClock())
	earliest := r.Earliest()

	days, err := r.Resolve(context.Background(), Request{
		Mode:  ModeRange,
		Start: date(2025, 1, 1),
		End:   date(2027, 1, 1),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, earliest, days[0])
	assert.Equal(t, r.Today(), days[len(days)-1])
	for _, d := range days {
		assert.False(t, d.Before(earliest), "day %s precedes the window", d)
	}
}

func TestResolveRangeOutsideWindow(t *testing.T) {
	r := NewResolver(fixedClock())

	_, err := r.Resolve(context.Background(), Request{
		Mode:  ModeRange,
		Start: date(2025, 1, 1),
		End:   date(2025, 1, 5),
	}, nil)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestResolveOldestUnsaved(t *testing.T) {
	r := NewResolver(fixedClock())
	cache := fakeCache{}
	for _, d := range Span(r.Earliest(), date(2026, 9, 1)) {
		cache[d.Format(layoutISO)] = true
	}

	days, err := r.Resolve(context.Background(), Request{Mode: ModeOldestUnsaved}, cache)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2026, 9, 2)}, days)
}

func TestResolveOldestUnsavedAllCached(t *testing.T) {
	r := NewResolver(fixedClock())
	cache := fakeCache{}
	for _, d := range Span(r.Earliest(), r.Today()) {
		cache[d.Format(layoutISO)] = true
	}

	_, err := r.Resolve(context.Background(), Request{Mode: ModeOldestUnsaved}, cache)
	require.ErrorIs(t, err, ErrNoUnsavedDate)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("03.10.2026")
	require.NoError(t, err)
	assert.Equal(t, date(2026, 10, 3), d)

	d, err = ParseDate("2026-10-03")
	require.NoError(t, err)
	assert.Equal(t, date(2026, 10, 3), d)

	_, err = ParseDate("3rd of October")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}
