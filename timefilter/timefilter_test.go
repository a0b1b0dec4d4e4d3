// ABOUTME: Tests for time filter parsing and window resolution
// ABOUTME: Uses a fixed clock so calendar boundaries are deterministic
package timefilter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var now = time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFixedWindows(t *testing.T) {
	cases := []struct {
		rng   string
		start time.Time
		last  time.Time
	}{
		{"today", day(2024, 5, 15), day(2024, 5, 15)},
		{"yesterday", day(2024, 5, 14), day(2024, 5, 14)},
		{"this_week", day(2024, 5, 12), day(2024, 5, 18)},
		{"last_week", day(2024, 5, 5), day(2024, 5, 11)},
		{"this_month", day(2024, 5, 1), day(2024, 5, 31)},
		{"last_month", day(2024, 4, 1), day(2024, 4, 30)},
		{"this_quarter", day(2024, 4, 1), day(2024, 6, 30)},
		{"last_quarter", day(2024, 1, 1), day(2024, 3, 31)},
		{"this_year", day(2024, 1, 1), day(2024, 12, 31)},
		{"last_year", day(2023, 1, 1), day(2023, 12, 31)},
	}
	for _, tc := range cases {
		t.Run(tc.rng, func(t *testing.T) {
			f, err := Parse("fixed", tc.rng, "", "")
			require.NoError(t, err)
			w := f.Window(now)
			require.NotNil(t, w.Start)
			require.NotNil(t, w.End)
			assert.True(t, tc.start.Equal(*w.Start), "start %s", w.Start)
			assert.Equal(t, tc.last.Format("2006-01-02"), w.End.Format("2006-01-02"))
			assert.True(t, w.Contains(tc.last.Add(23*time.Hour+59*time.Minute)))
			assert.False(t, w.Contains(tc.start.Add(-time.Second)))
		})
	}
}

func TestFixedAllIsOpen(t *testing.T) {
	f, err := Parse("fixed", "", "", "")
	require.NoError(t, err)
	assert.True(t, f.Window(now).Open())

	assert.True(t, Filter{}.Window(now).Open())
}

func TestRollingWindow(t *testing.T) {
	f, err := Parse("rolling", "last_30_days", "", "")
	require.NoError(t, err)
	w := f.Window(now)
	assert.True(t, w.Contains(now.AddDate(0, 0, -29)))
	assert.False(t, w.Contains(now.AddDate(0, 0, -31)))
	assert.False(t, w.Contains(now.Add(time.Minute)))
}

func TestCustomWindow(t *testing.T) {
	f, err := Parse("custom", "", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	w := f.Window(now)
	assert.True(t, w.Contains(time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(day(2024, 2, 1)))

	f, err = Parse("custom", "", "2024-01-10T00:00:00Z", "")
	require.NoError(t, err)
	w = f.Window(now)
	assert.Nil(t, w.End)
	assert.True(t, w.Contains(day(2030, 1, 1)))
	assert.False(t, w.Contains(day(2024, 1, 9)))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("fixed", "fortnight", "", "")
	assert.ErrorIs(t, err, ErrUnknownRange)

	_, err = Parse("rolling", "last_3_days", "", "")
	assert.ErrorIs(t, err, ErrUnknownRange)

	_, err = Parse("sliding", "", "", "")
	assert.Error(t, err)

	_, err = Parse("custom", "", "not-a-date", "")
	assert.Error(t, err)

	_, err = Parse("custom", "", "2024-02-01", "2024-01-01")
	assert.Error(t, err)
}

func TestApplyKeepsUndated(t *testing.T) {
	type item struct {
		name string
		at   *time.Time
	}
	in := day(2024, 5, 10)
	out := day(2023, 5, 10)
	items := []item{{"in", &in}, {"out", &out}, {"undated", nil}}

	f, _ := Parse("fixed", "this_month", "", "")
	got := Apply(items, f.Window(now), func(i item) *time.Time { return i.at })

	var names []string
	for _, i := range got {
		names = append(names, i.name)
	}
	assert.Equal(t, []string{"in", "undated"}, names)
}
