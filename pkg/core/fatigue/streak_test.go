package fatigue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// Monday 2024-08-12, the start of a Day shift
var base = time.Date(2024, 8, 12, 4, 45, 0, 0, time.UTC)

func testPolicy() model.PolicyConfig {
	return model.PolicyConfig{
		MaxConsecutiveShifts:      7,
		MinRestAfterMaxShifts:     48,
		MaxConsecutiveNightShifts: 4,
		MinRestAfterNightShifts:   48,
		MinRestAfter3Shifts:       36,
		ShiftLengthHours:          12,
		MaxHoursInDay:             12,
	}
}

func shiftAt(id string, start time.Time, kind model.ShiftKind) model.Shift {
	return model.Shift{
		ID:         id,
		OperatorID: "op-1",
		Start:      start,
		End:        start.Add(12 * time.Hour),
		Kind:       kind,
		Job:        "#1 Out",
	}
}

// backToBack returns n 12-hour shifts with no gap between them
func backToBack(prefix string, n int, start time.Time, kinds ...model.ShiftKind) []model.Shift {
	shifts := make([]model.Shift, n)
	for i := 0; i < n; i++ {
		kind := model.ShiftDay
		if len(kinds) > 0 {
			kind = kinds[i%len(kinds)]
		}
		shifts[i] = shiftAt(fmt.Sprintf("%s-%d", prefix, i), start.Add(time.Duration(i)*12*time.Hour), kind)
	}
	return shifts
}

// after returns the start time `gap` after the last shift ends
func after(shifts []model.Shift, gap time.Duration) time.Time {
	return shifts[len(shifts)-1].End.Add(gap)
}

func TestAnalyzeStreaks_NoBoundaryCountsEveryShift(t *testing.T) {
	tests := []struct {
		name string
		gap  time.Duration
		n    int
	}{
		{"back to back", 0, 5},
		{"one hour gaps", time.Hour, 6},
		{"just under the boundary", SetBoundary - time.Minute, 7},
		{"single shift", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shifts []model.Shift
			start := base
			for i := 0; i < tt.n; i++ {
				s := shiftAt(fmt.Sprintf("s-%d", i), start, model.ShiftDay)
				shifts = append(shifts, s)
				start = s.End.Add(tt.gap)
			}

			result := AnalyzeStreaks(shifts, NewEvaluator(testPolicy()))

			require.Nil(t, result.Violation)
			assert.Equal(t, tt.n, result.Final.ConsecutiveShifts)
			assert.Empty(t, result.Boundaries)
		})
	}
}

func TestAnalyzeStreaks_GapResetsStreak(t *testing.T) {
	first := backToBack("a", 2, base)
	next := shiftAt("b", after(first, 24*time.Hour), model.ShiftNight)
	shifts := append(first, next)

	result := AnalyzeStreaks(shifts, NewEvaluator(testPolicy()))

	require.Nil(t, result.Violation)
	assert.Equal(t, 1, result.Final.ConsecutiveShifts)
	assert.Equal(t, 1, result.Final.ConsecutiveNightShifts)
	require.Len(t, result.Boundaries, 1)
	assert.Equal(t, 2, result.Boundaries[0].Index)
	assert.Equal(t, 24*time.Hour, result.Boundaries[0].Gap)
	assert.Equal(t, 2, result.Boundaries[0].Ended.ConsecutiveShifts)
}

func TestAnalyzeStreaks_GapOfExactlyTwelveHoursIsBoundary(t *testing.T) {
	// Consecutive Day shifts on consecutive days are separated by exactly 12h
	shifts := []model.Shift{
		shiftAt("d1", base, model.ShiftDay),
		shiftAt("d2", base.AddDate(0, 0, 1), model.ShiftDay),
		shiftAt("d3", base.AddDate(0, 0, 2), model.ShiftDay),
	}

	result := AnalyzeStreaks(shifts, NewEvaluator(testPolicy()))

	require.Nil(t, result.Violation)
	assert.Equal(t, 1, result.Final.ConsecutiveShifts)
	assert.Len(t, result.Boundaries, 2)
}

func TestAnalyzeStreaks_NightCountCarriesThroughDayShift(t *testing.T) {
	shifts := backToBack("m", 5, base, model.ShiftNight, model.ShiftNight, model.ShiftDay)
	// N N D N N

	result := AnalyzeStreaks(shifts, NewEvaluator(testPolicy()))

	require.Nil(t, result.Violation)
	assert.Equal(t, 5, result.Final.ConsecutiveShifts)
	assert.Equal(t, 4, result.Final.ConsecutiveNightShifts)
}

func TestAnalyzeStreaks_ScenarioA_FifthShiftAccepted(t *testing.T) {
	prior := backToBack("p", 4, base)
	candidate := shiftAt("", after(prior, 0), model.ShiftDay)

	result := AnalyzeStreaks(BuildShiftSet(candidate, prior, nil), NewEvaluator(testPolicy()))

	require.Nil(t, result.Violation)
	assert.Equal(t, 5, result.Final.ConsecutiveShifts)
}

func TestAnalyzeStreaks_ScenarioB_ExceedsMaximum(t *testing.T) {
	prior := backToBack("p", 7, base)
	candidate := shiftAt("", after(prior, 0), model.ShiftDay)

	result := AnalyzeStreaks(BuildShiftSet(candidate, prior, nil), NewEvaluator(testPolicy()))

	require.NotNil(t, result.Violation)
	assert.Equal(t, RuleMaxStreak, result.Violation.Rule)
	assert.Contains(t, result.Violation.Reason, "exceeded maximum consecutive shifts")
	assert.Equal(t, candidate.Start, result.Violation.Date)
	assert.Equal(t, 8, result.Final.ConsecutiveShifts)
	assert.ErrorIs(t, result.Violation, ErrFatigueViolation)
}

func TestAnalyzeStreaks_ScenarioD_RestAfterThreeShiftSet(t *testing.T) {
	tests := []struct {
		name     string
		gapHours int
		wantRule Rule
	}{
		{"30h rest is too short", 30, RuleThreeShiftRest},
		{"35h rest is too short", 35, RuleThreeShiftRest},
		{"36h rest is enough", 36, ""},
		{"48h rest is enough", 48, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := backToBack("s", 3, base)
			candidate := shiftAt("", after(set, time.Duration(tt.gapHours)*time.Hour), model.ShiftDay)

			result := AnalyzeStreaks(BuildShiftSet(candidate, set, nil), NewEvaluator(testPolicy()))

			if tt.wantRule == "" {
				assert.Nil(t, result.Violation)
				return
			}
			require.NotNil(t, result.Violation)
			assert.Equal(t, tt.wantRule, result.Violation.Rule)
			assert.Contains(t, result.Violation.Reason, "insufficient rest after 3-shift set")
		})
	}
}

func TestAnalyzeStreaks_RestAfterMaxStreakBoundary(t *testing.T) {
	policy := testPolicy()
	set := backToBack("s", policy.MaxConsecutiveShifts, base)

	exact := shiftAt("", after(set, time.Duration(policy.MinRestAfterMaxShifts)*time.Hour), model.ShiftDay)
	result := AnalyzeStreaks(BuildShiftSet(exact, set, nil), NewEvaluator(policy))
	assert.Nil(t, result.Violation, "exactly the required rest must be accepted")

	short := shiftAt("", after(set, time.Duration(policy.MinRestAfterMaxShifts-1)*time.Hour), model.ShiftDay)
	result = AnalyzeStreaks(BuildShiftSet(short, set, nil), NewEvaluator(policy))
	require.NotNil(t, result.Violation)
	assert.Equal(t, RuleMaxStreakRest, result.Violation.Rule)
	assert.Contains(t, result.Violation.Reason, "insufficient rest after max streak")
}

func TestAnalyzeStreaks_NightStreakRest(t *testing.T) {
	nights := backToBack("n", 4, base, model.ShiftNight)

	short := shiftAt("", after(nights, 24*time.Hour), model.ShiftDay)
	result := AnalyzeStreaks(BuildShiftSet(short, nights, nil), NewEvaluator(testPolicy()))
	require.NotNil(t, result.Violation)
	assert.Equal(t, RuleNightStreakRest, result.Violation.Rule)
	assert.Contains(t, result.Violation.Reason, "insufficient rest after night-shift streak")
	assert.Equal(t, short.Start, result.Violation.Date)

	enough := shiftAt("", after(nights, 48*time.Hour), model.ShiftDay)
	result = AnalyzeStreaks(BuildShiftSet(enough, nights, nil), NewEvaluator(testPolicy()))
	assert.Nil(t, result.Violation)
}

func TestAnalyzeStreaks_StopsAtFirstViolation(t *testing.T) {
	set := backToBack("s", 3, base)
	second := backToBack("t", 3, after(set, 20*time.Hour))
	// second set also too short on rest, but only the first boundary is reported
	third := shiftAt("x", after(second, 13*time.Hour), model.ShiftDay)

	shifts := append(append(set, second...), third)
	result := AnalyzeStreaks(shifts, NewEvaluator(testPolicy()))

	require.NotNil(t, result.Violation)
	assert.Equal(t, second[0].Start, result.Violation.Date)
	assert.Len(t, result.Boundaries, 1)
}

func TestAnalyzeStreaks_Empty(t *testing.T) {
	result := AnalyzeStreaks(nil, NewEvaluator(testPolicy()))

	assert.Nil(t, result.Violation)
	assert.Equal(t, 0, result.Final.ConsecutiveShifts)
}
