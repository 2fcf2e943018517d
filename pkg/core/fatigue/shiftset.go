package fatigue

import (
	"slices"
	"time"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// BuildShiftSet merges an operator's persisted shifts, the shifts created earlier in
// the same batch, and the candidate into one chronological sequence.
//
// Shifts are deduplicated by ID. When an ID repeats, the later occurrence replaces the
// earlier one but keeps its position, so an edited candidate supersedes its stored
// version. Shifts without an ID are always kept. The result is stable-sorted by start.
func BuildShiftSet(candidate model.Shift, persisted, inFlight []model.Shift) []model.Shift {
	combined := make([]model.Shift, 0, len(persisted)+len(inFlight)+1)
	positions := make(map[string]int, len(persisted)+len(inFlight)+1)

	add := func(s model.Shift) {
		if !s.IsPersisted() {
			combined = append(combined, s)
			return
		}
		if pos, ok := positions[s.ID]; ok {
			combined[pos] = s
			return
		}
		positions[s.ID] = len(combined)
		combined = append(combined, s)
	}

	for _, s := range persisted {
		add(s)
	}
	for _, s := range inFlight {
		add(s)
	}
	add(candidate)

	slices.SortStableFunc(combined, func(a, b model.Shift) int {
		return a.Start.Compare(b.Start)
	})

	return combined
}

// Window returns the range of persisted shifts to load for a candidate: from the
// Monday of the ISO week containing the candidate's start to the end of the ISO week
// containing its end, widened by extensionDays on both sides.
func Window(candidate model.Shift, loc *time.Location, extensionDays int) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	from := startOfISOWeek(candidate.Start.In(loc))
	to := startOfISOWeek(candidate.End.In(loc)).AddDate(0, 0, 7)

	if extensionDays > 0 {
		from = from.AddDate(0, 0, -extensionDays)
		to = to.AddDate(0, 0, extensionDays)
	}
	return from, to
}

func startOfISOWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// Weekday: Sunday=0. ISO weeks start on Monday.
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}
