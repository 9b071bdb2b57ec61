package admission

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps is false for back-to-back intervals.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// AnyOverlap reports whether candidate overlaps at least one of existing.
func AnyOverlap(candidate Interval, existing []Interval) bool {
	for _, e := range existing {
		if candidate.Overlaps(e) {
			return true
		}
	}
	return false
}
