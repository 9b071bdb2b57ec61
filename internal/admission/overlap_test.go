package admission

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 1, 5, hour, minute, 0, 0, time.UTC)
}

func TestInterval_Overlaps(t *testing.T) {
	base := Interval{Start: at(10, 0), End: at(12, 0)}

	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"partial overlap", Interval{at(11, 0), at(13, 0)}, true},
		{"contained", Interval{at(10, 30), at(11, 30)}, true},
		{"containing", Interval{at(9, 0), at(13, 0)}, true},
		{"identical", base, true},
		{"back to back after", Interval{at(12, 0), at(13, 0)}, false},
		{"back to back before", Interval{at(9, 0), at(10, 0)}, false},
		{"disjoint", Interval{at(14, 0), at(15, 0)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
			if got := tc.other.Overlaps(base); got != tc.want {
				t.Errorf("Overlaps is not symmetric: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAnyOverlap(t *testing.T) {
	candidate := Interval{Start: at(12, 0), End: at(13, 0)}

	if AnyOverlap(candidate, nil) {
		t.Error("expected no overlap against an empty set")
	}
	existing := []Interval{
		{Start: at(10, 0), End: at(12, 0)},
		{Start: at(13, 0), End: at(14, 0)},
	}
	if AnyOverlap(candidate, existing) {
		t.Error("expected adjacent intervals not to overlap")
	}
	existing = append(existing, Interval{Start: at(12, 30), End: at(15, 0)})
	if !AnyOverlap(candidate, existing) {
		t.Error("expected overlap with the last interval")
	}
}
