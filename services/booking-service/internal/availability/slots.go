package availability

import (
	"cmp"
	"slices"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

// NoCutoff lets every start of the day through AvailableSlots.
const NoCutoff model.Clock = -1

// Interval is a half-open busy range [Start, End) of wall-clock minutes.
type Interval struct {
	Start model.Clock
	End   model.Clock
}

// AvailableSlots steps from open by step and keeps every start t where
// [t, t+duration) fits before close, misses every busy interval and is
// strictly after cutoff.
func AvailableSlots(open, close model.Clock, duration, step int, busy []Interval, cutoff model.Clock) []model.Clock {
	if duration <= 0 || step <= 0 || open.Add(duration) > close {
		return nil
	}

	merged := mergeBusy(busy)
	var slots []model.Clock
	next := 0
	for t := open; t.Add(duration) <= close; t = t.Add(step) {
		for next < len(merged) && merged[next].End <= t {
			next++
		}
		if t <= cutoff {
			continue
		}
		if next == len(merged) || merged[next].Start >= t.Add(duration) {
			slots = append(slots, t)
		}
	}
	return slots
}

// fits applies the AvailableSlots rules to a single start that need not be on
// the step grid.
func fits(open, close model.Clock, start model.Clock, duration int, busy []Interval, cutoff model.Clock) bool {
	if duration <= 0 || start < open || start.Add(duration) > close || start <= cutoff {
		return false
	}
	end := start.Add(duration)
	for _, b := range busy {
		if b.Start < end && start < b.End {
			return false
		}
	}
	return true
}

// mergeBusy sorts busy by start and folds touching or overlapping ranges, so
// the first range ending after t is the only one that can clash with a slot
// starting at t.
func mergeBusy(busy []Interval) []Interval {
	out := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if b.End > b.Start {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b Interval) int { return cmp.Compare(a.Start, b.Start) })

	merged := out[:0]
	for _, b := range out {
		if n := len(merged); n > 0 && b.Start <= merged[n-1].End {
			merged[n-1].End = max(merged[n-1].End, b.End)
			continue
		}
		merged = append(merged, b)
	}
	return merged
}
