package fatigue

import (
	"strconv"
	"time"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// SetBoundary is the rest gap at which one duty set ends and the next begins
const SetBoundary = 12 * time.Hour

// StreakState is the running state of a walk over an operator's shifts
type StreakState struct {
	ConsecutiveShifts      int
	ConsecutiveNightShifts int
	LastShiftEnd           time.Time
}

// Boundary records a rest gap of at least SetBoundary between two duty sets
type Boundary struct {
	// Index of the first shift of the new set
	Index int
	Gap   time.Duration
	// Ended is the streak state of the set that closed at this boundary
	Ended StreakState
}

// StreakResult is the outcome of analysing a sorted shift sequence.
// Violation is nil when every boundary and streak check passed.
type StreakResult struct {
	Final      StreakState
	Boundaries []Boundary
	Violation  *RejectionError
}

// AnalyzeStreaks walks a chronologically sorted shift sequence, counting consecutive and
// consecutive-night shifts. A gap of SetBoundary or more closes the current set: the
// closed set is checked for rest compliance before the counters reset. The night count
// carries through day shifts within a set. Analysis stops at the first violation.
func AnalyzeStreaks(shifts []model.Shift, evaluator *Evaluator) StreakResult {
	var result StreakResult
	state := StreakState{}

	for i, shift := range shifts {
		isNight := 0
		if shift.Kind == model.ShiftNight {
			isNight = 1
		}

		switch {
		case state.LastShiftEnd.IsZero():
			state.ConsecutiveShifts = 1
			state.ConsecutiveNightShifts = isNight

		case shift.Start.Sub(state.LastShiftEnd) >= SetBoundary:
			gap := shift.Start.Sub(state.LastShiftEnd)
			result.Boundaries = append(result.Boundaries, Boundary{Index: i, Gap: gap, Ended: state})

			if rej := evaluator.CheckRest(state, gap, shift.Start); rej != nil {
				result.Final = state
				result.Violation = rej
				return result
			}

			state.ConsecutiveShifts = 1
			state.ConsecutiveNightShifts = isNight

		default:
			state.ConsecutiveShifts++
			state.ConsecutiveNightShifts += isNight
		}

		state.LastShiftEnd = shift.End

		if rej := evaluator.CheckStreak(state, shift.Start); rej != nil {
			result.Final = state
			result.Violation = rej
			return result
		}
	}

	result.Final = state
	return result
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "h"
}
