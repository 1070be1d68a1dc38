package availability

import (
	"slices"
	"testing"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

func at(h, m int) model.Clock { return model.NewClock(h, m) }

func TestAvailableSlots_Basic(t *testing.T) {
	busy := []Interval{{Start: at(9, 15), End: at(9, 45)}}

	slots := AvailableSlots(at(9, 0), at(10, 0), 15, 15, busy, NoCutoff)
	if want := []model.Clock{at(9, 0), at(9, 45)}; !slices.Equal(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
}

func TestAvailableSlots_SkipsAtOrBeforeCutoff(t *testing.T) {
	// 09:30 exactly is "at now" and must go too.
	slots := AvailableSlots(at(9, 0), at(10, 0), 15, 15, nil, at(9, 30))
	if want := []model.Clock{at(9, 45)}; !slices.Equal(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}

	if got := AvailableSlots(at(9, 0), at(10, 0), 15, 15, nil, model.EndOfDay); len(got) != 0 {
		t.Fatalf("a past day must yield nothing, got %v", got)
	}
}

func TestAvailableSlots_Adjacency(t *testing.T) {
	busy := []Interval{{Start: at(10, 0), End: at(11, 0)}}

	slots := AvailableSlots(at(9, 0), at(12, 0), 60, 60, busy, NoCutoff)
	// 09:00 ends exactly at 10:00 and 11:00 starts exactly at the busy end.
	if want := []model.Clock{at(9, 0), at(11, 0)}; !slices.Equal(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
}

func TestAvailableSlots_DurationLongerThanWindow(t *testing.T) {
	if got := AvailableSlots(at(9, 0), at(10, 0), 120, 30, nil, NoCutoff); len(got) != 0 {
		t.Fatalf("expected no slots, got %v", got)
	}
}

func TestAvailableSlots_UntilEndOfDay(t *testing.T) {
	slots := AvailableSlots(at(22, 0), model.EndOfDay, 60, 60, nil, NoCutoff)
	if want := []model.Clock{at(22, 0), at(23, 0)}; !slices.Equal(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
}

func TestAvailableSlots_UnsortedOverlappingBusy(t *testing.T) {
	busy := []Interval{
		{Start: at(11, 0), End: at(11, 30)},
		{Start: at(9, 30), End: at(10, 15)},
		{Start: at(9, 45), End: at(10, 0)},
		{Start: at(10, 30), End: at(10, 30)},
	}

	slots := AvailableSlots(at(9, 0), at(12, 0), 30, 15, busy, NoCutoff)
	want := []model.Clock{at(9, 0), at(10, 15), at(10, 30), at(11, 30)}
	if !slices.Equal(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
}

func TestFits(t *testing.T) {
	busy := []Interval{{Start: at(10, 15), End: at(11, 15)}}
	cases := []struct {
		name   string
		start  model.Clock
		dur    int
		cutoff model.Clock
		want   bool
	}{
		{"off grid before busy", at(9, 10), 60, NoCutoff, true},
		{"touches busy start", at(9, 15), 60, NoCutoff, true},
		{"overlaps busy", at(9, 30), 60, NoCutoff, false},
		{"starts at busy end", at(11, 15), 45, NoCutoff, true},
		{"runs past close", at(11, 30), 45, NoCutoff, false},
		{"before open", at(8, 45), 30, NoCutoff, false},
		{"at cutoff", at(11, 15), 30, at(11, 15), false},
		{"after cutoff", at(11, 20), 30, at(11, 15), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := fits(at(9, 0), at(12, 0), tc.start, tc.dur, busy, tc.cutoff); got != tc.want {
				t.Fatalf("fits(%s, %d) = %v, want %v", tc.start, tc.dur, got, tc.want)
			}
		})
	}
}

func TestMergeBusy(t *testing.T) {
	got := mergeBusy([]Interval{
		{Start: at(2, 0), End: at(3, 0)},
		{Start: at(1, 0), End: at(2, 0)},
		{Start: at(5, 0), End: at(4, 0)},
	})
	if len(got) != 1 || got[0].Start != at(1, 0) || got[0].End != at(3, 0) {
		t.Fatalf("unexpected merge %v", got)
	}
}
