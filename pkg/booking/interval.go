package booking

import (
	"fmt"
	"time"
)

// Window is the half-open time interval [start, end) a reservation claims on
// a table.
type Window struct {
	start time.Time
	end   time.Time
}

// NewWindow validates the ordering invariant. Date-window business rules
// (duration, calendar day, horizon) depend on the current time and are
// enforced by the Service at creation and update.
func NewWindow(start time.Time, end time.Time) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, fmt.Errorf("%w: zero timestamp", ErrInvalidWindow)
	}
	if !start.Before(end) {
		return Window{}, fmt.Errorf("%w: start must precede end", ErrInvalidWindow)
	}
	return Window{start: start.UTC(), end: end.UTC()}, nil
}

// Start returns the inclusive lower bound.
func (window Window) Start() time.Time {
	return window.start
}

// End returns the exclusive upper bound.
func (window Window) End() time.Time {
	return window.end
}

// Duration returns the claimed length.
func (window Window) Duration() time.Duration {
	return window.end.Sub(window.start)
}

// SameCalendarDay reports whether both bounds fall on one calendar day.
// The end bound is exclusive, so a window ending exactly at midnight still
// belongs to the starting day.
func (window Window) SameCalendarDay() bool {
	endDay := window.end
	if endDay.Hour() == 0 && endDay.Minute() == 0 && endDay.Second() == 0 && endDay.Nanosecond() == 0 {
		endDay = endDay.Add(-time.Nanosecond)
	}
	startYear, startMonth, startDay := window.start.Date()
	endYear, endMonth, endDayOfMonth := endDay.Date()
	return startYear == endYear && startMonth == endMonth && startDay == endDayOfMonth
}

// Overlaps reports whether two half-open intervals intersect. Back-to-back
// windows (one's end equals the other's start) do not overlap.
func (window Window) Overlaps(other Window) bool {
	return window.start.Before(other.end) && other.start.Before(window.end)
}

// Contains reports whether the other window lies entirely inside this one.
func (window Window) Contains(other Window) bool {
	return !other.start.Before(window.start) && !other.end.After(window.end)
}
