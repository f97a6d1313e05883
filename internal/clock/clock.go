// Package clock makes time injectable so maturity and daily-reset logic can
// be tested against a fixed instant.
package clock

import "time"

// Clock returns the current platform-local time.
type Clock func() time.Time

// System returns a clock pinned to the platform time zone.
func System(loc *time.Location) Clock {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// DayStart truncates t to midnight in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b.In(a.Location())))
}
