package fatigue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

var exclusiveJobs = NewJobSet("FCC Console", "VRU Console", "#1 Out", "#2 Out", "#3 Out", "Tank Farm")

func consoleShift(id, operatorID string, start time.Time) model.Shift {
	return model.Shift{
		ID:         id,
		OperatorID: operatorID,
		Start:      start,
		End:        start.Add(12 * time.Hour),
		Kind:       model.ShiftDay,
		Job:        "FCC Console",
	}
}

func TestCheckJobConflict_ScenarioC(t *testing.T) {
	held := consoleShift("x-1", "operator-x", time.Date(2024, 8, 18, 4, 45, 0, 0, time.UTC))
	candidate := consoleShift("", "operator-y", time.Date(2024, 8, 18, 10, 0, 0, 0, time.UTC))

	rej := CheckJobConflict(candidate, []model.Shift{held}, exclusiveJobs)

	require.NotNil(t, rej)
	assert.Equal(t, RuleJobConflict, rej.Rule)
	assert.Contains(t, rej.Reason, "job already assigned")
	require.NotNil(t, rej.Conflicting)
	assert.Equal(t, "x-1", rej.Conflicting.ID)
	assert.ErrorIs(t, rej, ErrJobConflict)
}

func TestCheckJobConflict(t *testing.T) {
	start := time.Date(2024, 8, 18, 4, 45, 0, 0, time.UTC)

	tests := []struct {
		name      string
		candidate model.Shift
		holders   []model.Shift
		wantRej   bool
	}{
		{
			name:      "non-exclusive job may be shared",
			candidate: func() model.Shift { s := consoleShift("", "y", start); s.Job = "Out Extra"; return s }(),
			holders:   []model.Shift{func() model.Shift { s := consoleShift("1", "x", start); s.Job = "Out Extra"; return s }()},
		},
		{
			name:      "touching windows do not conflict",
			candidate: consoleShift("", "y", start.Add(12*time.Hour)),
			holders:   []model.Shift{consoleShift("1", "x", start)},
		},
		{
			name:      "same operator is left to the overlap check",
			candidate: consoleShift("", "x", start),
			holders:   []model.Shift{consoleShift("1", "x", start)},
		},
		{
			name:      "edited shift does not conflict with itself",
			candidate: consoleShift("1", "y", start),
			holders:   []model.Shift{consoleShift("1", "y", start)},
		},
		{
			name:      "different job label is ignored",
			candidate: consoleShift("", "y", start),
			holders:   []model.Shift{func() model.Shift { s := consoleShift("1", "x", start); s.Job = "VRU Console"; return s }()},
		},
		{
			name:      "partial overlap conflicts",
			candidate: consoleShift("", "y", start.Add(11*time.Hour)),
			holders:   []model.Shift{consoleShift("1", "x", start)},
			wantRej:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := CheckJobConflict(tt.candidate, tt.holders, exclusiveJobs)
			if tt.wantRej {
				assert.NotNil(t, rej)
			} else {
				assert.Nil(t, rej)
			}
		})
	}
}

func TestCheckSelfOverlap(t *testing.T) {
	start := time.Date(2024, 8, 18, 4, 45, 0, 0, time.UTC)
	existing := model.Shift{
		ID: "e1", OperatorID: "op", Start: start, End: start.Add(12 * time.Hour),
		Kind: model.ShiftDay, Job: "Training",
	}

	overlapping := consoleShift("", "op", start.Add(4*time.Hour))
	rej := CheckSelfOverlap(overlapping, []model.Shift{existing})
	require.NotNil(t, rej)
	assert.Equal(t, RuleSelfOverlap, rej.Rule)
	assert.ErrorIs(t, rej, ErrSelfOverlap)

	following := consoleShift("", "op", start.Add(12*time.Hour))
	assert.Nil(t, CheckSelfOverlap(following, []model.Shift{existing}))

	otherOperator := consoleShift("", "someone-else", start)
	assert.Nil(t, CheckSelfOverlap(otherOperator, []model.Shift{existing}))

	edited := existing
	edited.End = start.Add(8 * time.Hour)
	assert.Nil(t, CheckSelfOverlap(edited, []model.Shift{existing}))
}

func TestCheckTraining(t *testing.T) {
	candidate := consoleShift("", "op", base)

	trained := model.Operator{ID: "op", Name: "Pat", Jobs: []string{"FCC Console"}}
	assert.Nil(t, CheckTraining(candidate, trained, exclusiveJobs))

	untrained := model.Operator{ID: "op", Name: "Sam", Jobs: []string{"Tank Farm"}}
	rej := CheckTraining(candidate, untrained, exclusiveJobs)
	require.NotNil(t, rej)
	assert.Equal(t, RuleOperatorTraining, rej.Rule)
	assert.Contains(t, rej.Reason, "not trained for job FCC Console")

	open := candidate
	open.Job = "Overtime"
	assert.Nil(t, CheckTraining(open, untrained, exclusiveJobs))
}
