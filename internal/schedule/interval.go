package schedule

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant:
// a.Start < b.End && b.Start < a.End. Intervals that merely touch, where one
// ends exactly when the other starts, do not overlap, so back-to-back
// bookings are legal. Every conflict decision in the engine goes through
// this predicate.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func overlapsAny(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}
