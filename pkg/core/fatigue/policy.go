package fatigue

import (
	"time"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// Evaluator applies the fatigue policy thresholds to streak state
type Evaluator struct {
	policy model.PolicyConfig
}

func NewEvaluator(policy model.PolicyConfig) *Evaluator {
	return &Evaluator{policy: policy}
}

func (e *Evaluator) Policy() model.PolicyConfig {
	return e.policy
}

// CheckStreak rejects a streak that has grown past the maximum, regardless of any rest
// gap. `at` is the start of the shift that produced the streak.
func (e *Evaluator) CheckStreak(state StreakState, at time.Time) *RejectionError {
	if state.ConsecutiveShifts > e.policy.MaxConsecutiveShifts {
		return reject(RuleMaxStreak, at,
			"exceeded maximum consecutive shifts (%d): streak would reach %d",
			e.policy.MaxConsecutiveShifts, state.ConsecutiveShifts)
	}
	return nil
}

// CheckRest decides whether the streak that just ended may be followed by a new set
// after `gap` of rest. Rules are applied in priority order and the first one that fails
// is reported. `at` is the start of the shift opening the new set.
func (e *Evaluator) CheckRest(state StreakState, gap time.Duration, at time.Time) *RejectionError {
	p := e.policy
	gapHours := gap.Hours()

	if rej := e.CheckStreak(state, at); rej != nil {
		return rej
	}

	if state.ConsecutiveNightShifts >= p.MaxConsecutiveNightShifts && gapHours < float64(p.MinRestAfterNightShifts) {
		return reject(RuleNightStreakRest, at,
			"insufficient rest after night-shift streak: %d consecutive night shifts need %dh of rest, got %s",
			state.ConsecutiveNightShifts, p.MinRestAfterNightShifts, formatHours(gapHours))
	}

	if state.ConsecutiveShifts == 3 && gapHours < float64(p.MinRestAfter3Shifts) {
		return reject(RuleThreeShiftRest, at,
			"insufficient rest after 3-shift set: need %dh, got %s",
			p.MinRestAfter3Shifts, formatHours(gapHours))
	}

	if state.ConsecutiveShifts >= p.MaxConsecutiveShifts && gapHours < float64(p.MinRestAfterMaxShifts) {
		return reject(RuleMaxStreakRest, at,
			"insufficient rest after max streak: %d consecutive shifts need %dh of rest, got %s",
			state.ConsecutiveShifts, p.MinRestAfterMaxShifts, formatHours(gapHours))
	}

	return nil
}

// CheckLength rejects shifts that are empty, inverted, or longer than a working day
func (e *Evaluator) CheckLength(s model.Shift) *RejectionError {
	if !s.End.After(s.Start) {
		return reject(RuleInvalidShift, s.Start, "shift end must be after its start")
	}
	if e.policy.MaxHoursInDay > 0 && s.Duration() > time.Duration(e.policy.MaxHoursInDay)*time.Hour {
		return reject(RuleInvalidShift, s.Start,
			"shift lasts %s, longer than the %dh allowed in a day",
			formatHours(s.Duration().Hours()), e.policy.MaxHoursInDay)
	}
	return nil
}
