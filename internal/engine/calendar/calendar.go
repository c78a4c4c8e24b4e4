package calendar

import (
	"fmt"
	"time"
)

// Calendar answers whether the exchange is open at a point in time and how
// many open-market minutes elapsed between two points in time. The exchange
// is open Monday through Friday inside a fixed local time-of-day window.
type Calendar struct {
	loc       *time.Location
	openHour  int
	openMin   int
	closeHour int
	closeMin  int
}

// New creates a Calendar for the given location and "HH:MM" open/close times.
func New(loc *time.Location, openTime, closeTime string) (*Calendar, error) {
	oh, om, err := parseTimeOfDay(openTime)
	if err != nil {
		return nil, fmt.Errorf("invalid open time: %w", err)
	}
	ch, cm, err := parseTimeOfDay(closeTime)
	if err != nil {
		return nil, fmt.Errorf("invalid close time: %w", err)
	}
	if oh*60+om >= ch*60+cm {
		return nil, fmt.Errorf("open time %s must be before close time %s", openTime, closeTime)
	}
	return &Calendar{loc: loc, openHour: oh, openMin: om, closeHour: ch, closeMin: cm}, nil
}

func parseTimeOfDay(s string) (hour, min int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time of day out of range: %q", s)
	}
	return hour, min, nil
}

// Location returns the exchange timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsOpen reports whether the exchange is open at t. The session window is
// half-open: [open, close).
func (c *Calendar) IsOpen(t time.Time) bool {
	t = t.In(c.loc)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	open, close := c.sessionBounds(t)
	return !t.Before(open) && t.Before(close)
}

// NextOpen returns the earliest session open at or after t.
func (c *Calendar) NextOpen(t time.Time) time.Time {
	t = t.In(c.loc)
	for {
		if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
			open, _ := c.sessionBounds(t)
			if !t.After(open) {
				return open
			}
			if t.Before(open.Add(c.sessionDuration())) {
				// Inside the current session already.
				return t
			}
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc).AddDate(0, 0, 1)
	}
}

// OpenMinutesBetween counts the minutes between t1 and t2 that fall inside
// open sessions, skipping weekends and out-of-hours time entirely. It walks
// session boundaries rather than individual minutes, so the cost is
// proportional to the number of sessions crossed. Returns 0 when t1 >= t2.
func (c *Calendar) OpenMinutesBetween(t1, t2 time.Time) float64 {
	t1 = t1.In(c.loc)
	t2 = t2.In(c.loc)
	if !t1.Before(t2) {
		return 0
	}

	var total float64
	cur := t1
	for cur.Before(t2) {
		if !c.IsOpen(cur) {
			next := c.NextOpen(cur)
			if next.Equal(cur) {
				// NextOpen never returns a closed instant; guard anyway.
				next = next.Add(time.Minute)
			}
			cur = next
			continue
		}
		_, close := c.sessionBounds(cur)
		end := close
		if t2.Before(end) {
			end = t2
		}
		total += end.Sub(cur).Minutes()
		cur = end
		if cur.Equal(close) {
			cur = c.NextOpen(cur)
		}
	}
	return total
}

func (c *Calendar) sessionBounds(t time.Time) (open, close time.Time) {
	open = time.Date(t.Year(), t.Month(), t.Day(), c.openHour, c.openMin, 0, 0, c.loc)
	close = time.Date(t.Year(), t.Month(), t.Day(), c.closeHour, c.closeMin, 0, 0, c.loc)
	return open, close
}

func (c *Calendar) sessionDuration() time.Duration {
	return time.Duration((c.closeHour*60+c.closeMin)-(c.openHour*60+c.openMin)) * time.Minute
}
