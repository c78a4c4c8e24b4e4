package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// June 2025: Mon 2nd, Tue 3rd, Fri 6th, Sat 7th, Mon 9th.
func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	cal, err := New(loc, "10:00", "16:00")
	require.NoError(t, err)
	return cal
}

func at(t *testing.T, cal *Calendar, day int, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, time.June, day, hour, min, 0, 0, cal.Location())
}

func TestIsOpen(t *testing.T) {
	t.Parallel()
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday_midday", at(t, cal, 2, 12, 0), true},
		{"monday_at_open", at(t, cal, 2, 10, 0), true},
		{"monday_at_close", at(t, cal, 2, 16, 0), false},
		{"monday_before_open", at(t, cal, 2, 9, 59), false},
		{"friday_last_minute", at(t, cal, 6, 15, 59), true},
		{"saturday", at(t, cal, 7, 12, 0), false},
		{"sunday", at(t, cal, 8, 12, 0), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cal.IsOpen(tt.at))
		})
	}
}

func TestOpenMinutesBetween(t *testing.T) {
	t.Parallel()
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		t1   time.Time
		t2   time.Time
		want float64
	}{
		{"same_session", at(t, cal, 3, 11, 0), at(t, cal, 3, 11, 30), 30},
		{"full_session", at(t, cal, 3, 10, 0), at(t, cal, 3, 16, 0), 360},
		{"friday_close_to_monday_open", at(t, cal, 6, 15, 59), at(t, cal, 9, 10, 1), 2},
		{"weekend_only", at(t, cal, 7, 12, 0), at(t, cal, 7, 13, 0), 0},
		{"reversed_is_zero", at(t, cal, 3, 12, 0), at(t, cal, 3, 11, 0), 0},
		{"equal_is_zero", at(t, cal, 3, 12, 0), at(t, cal, 3, 12, 0), 0},
		{"overnight", at(t, cal, 2, 15, 30), at(t, cal, 3, 10, 30), 60},
		{"starts_before_open", at(t, cal, 3, 8, 0), at(t, cal, 3, 10, 15), 15},
		{"ends_after_close", at(t, cal, 3, 15, 30), at(t, cal, 3, 20, 0), 30},
		{"two_full_days", at(t, cal, 2, 10, 0), at(t, cal, 4, 10, 0), 720},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, cal.OpenMinutesBetween(tt.t1, tt.t2), 1e-9)
		})
	}
}

// openMinutesNaive counts open minutes by stepping one minute at a time. It
// is far too slow for production use but serves as an oracle for the
// boundary-jump implementation on small ranges.
func openMinutesNaive(cal *Calendar, t1, t2 time.Time) float64 {
	var total float64
	for cur := t1; cur.Before(t2); cur = cur.Add(time.Minute) {
		if cal.IsOpen(cur) {
			total++
		}
	}
	return total
}

func TestOpenMinutesBetween_MatchesNaiveStepping(t *testing.T) {
	t.Parallel()
	cal := newTestCalendar(t)

	ranges := []struct {
		name string
		t1   time.Time
		t2   time.Time
	}{
		{"inside_session", at(t, cal, 3, 10, 17), at(t, cal, 3, 14, 3)},
		{"across_weekend", at(t, cal, 6, 14, 0), at(t, cal, 9, 11, 0)},
		{"overnight", at(t, cal, 2, 15, 45), at(t, cal, 3, 10, 20)},
		{"entirely_closed", at(t, cal, 7, 9, 0), at(t, cal, 8, 21, 0)},
	}

	for _, tt := range ranges {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			want := openMinutesNaive(cal, tt.t1, tt.t2)
			got := cal.OpenMinutesBetween(tt.t1, tt.t2)
			assert.InDelta(t, want, got, 1e-9)
		})
	}
}

func TestNextOpen(t *testing.T) {
	t.Parallel()
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"before_open_same_day", at(t, cal, 3, 8, 0), at(t, cal, 3, 10, 0)},
		{"after_close_next_day", at(t, cal, 3, 17, 0), at(t, cal, 4, 10, 0)},
		{"friday_evening_to_monday", at(t, cal, 6, 16, 30), at(t, cal, 9, 10, 0)},
		{"saturday_to_monday", at(t, cal, 7, 12, 0), at(t, cal, 9, 10, 0)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.want.Equal(cal.NextOpen(tt.from)))
		})
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	_, err = New(loc, "16:00", "10:00")
	assert.Error(t, err)

	_, err = New(loc, "banana", "16:00")
	assert.Error(t, err)
}
