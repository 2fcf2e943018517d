package fatigue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

func TestBuildShiftSet_EmptyInputs(t *testing.T) {
	candidate := shiftAt("", base, model.ShiftDay)

	set := BuildShiftSet(candidate, nil, nil)

	require.Len(t, set, 1)
	assert.Equal(t, candidate, set[0])
}

func TestBuildShiftSet_MergesAndSorts(t *testing.T) {
	published := shiftAt("pub", base.Add(24*time.Hour), model.ShiftDay)
	published.Published = true
	draft := shiftAt("draft", base, model.ShiftDay)
	inFlight := shiftAt("batch", base.Add(48*time.Hour), model.ShiftDay)
	candidate := shiftAt("", base.Add(72*time.Hour), model.ShiftDay)

	set := BuildShiftSet(candidate, []model.Shift{published, draft}, []model.Shift{inFlight})

	require.Len(t, set, 4)
	assert.Equal(t, "draft", set[0].ID)
	assert.Equal(t, "pub", set[1].ID)
	assert.Equal(t, "batch", set[2].ID)
	assert.Equal(t, "", set[3].ID)
}

func TestBuildShiftSet_DeduplicatesByID(t *testing.T) {
	stored := shiftAt("s1", base, model.ShiftDay)
	// the same shift comes back from storage and from the batch
	set := BuildShiftSet(shiftAt("", base.Add(24*time.Hour), model.ShiftDay),
		[]model.Shift{stored}, []model.Shift{stored})

	assert.Len(t, set, 2)
}

func TestBuildShiftSet_KeepsAllUnsavedShifts(t *testing.T) {
	a := shiftAt("", base, model.ShiftDay)
	b := shiftAt("", base.Add(12*time.Hour), model.ShiftNight)

	set := BuildShiftSet(shiftAt("", base.Add(24*time.Hour), model.ShiftDay), nil, []model.Shift{a, b})

	assert.Len(t, set, 3)
}

func TestBuildShiftSet_EditedCandidateReplacesStoredVersion(t *testing.T) {
	stored := shiftAt("s1", base, model.ShiftDay)
	edited := stored
	edited.Start = base.Add(36 * time.Hour)
	edited.End = edited.Start.Add(12 * time.Hour)
	other := shiftAt("s2", base.Add(12*time.Hour), model.ShiftNight)

	set := BuildShiftSet(edited, []model.Shift{stored, other}, nil)

	require.Len(t, set, 2)
	assert.Equal(t, "s2", set[0].ID)
	assert.Equal(t, "s1", set[1].ID)
	assert.Equal(t, edited.Start, set[1].Start)
}

func TestBuildShiftSet_StableForEqualStarts(t *testing.T) {
	first := shiftAt("first", base, model.ShiftDay)
	second := shiftAt("second", base, model.ShiftDay)
	second.Job = "Training"
	second.End = base.Add(4 * time.Hour)

	set := BuildShiftSet(shiftAt("", base.Add(-24*time.Hour), model.ShiftDay),
		[]model.Shift{first}, []model.Shift{second})

	require.Len(t, set, 3)
	assert.Equal(t, "first", set[1].ID)
	assert.Equal(t, "second", set[2].ID)
}

func TestWindow(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	tests := []struct {
		name      string
		start     time.Time
		length    time.Duration
		extension int
		wantFrom  time.Time
		wantTo    time.Time
	}{
		{
			name:     "midweek day shift",
			start:    time.Date(2024, 8, 14, 4, 45, 0, 0, chicago),
			length:   12 * time.Hour,
			wantFrom: time.Date(2024, 8, 12, 0, 0, 0, 0, chicago),
			wantTo:   time.Date(2024, 8, 19, 0, 0, 0, 0, chicago),
		},
		{
			name:     "sunday night shift runs into next week",
			start:    time.Date(2024, 8, 18, 16, 45, 0, 0, chicago),
			length:   12 * time.Hour,
			wantFrom: time.Date(2024, 8, 12, 0, 0, 0, 0, chicago),
			wantTo:   time.Date(2024, 8, 26, 0, 0, 0, 0, chicago),
		},
		{
			name:      "extended window",
			start:     time.Date(2024, 8, 12, 4, 45, 0, 0, chicago),
			length:    12 * time.Hour,
			extension: 3,
			wantFrom:  time.Date(2024, 8, 9, 0, 0, 0, 0, chicago),
			wantTo:    time.Date(2024, 8, 22, 0, 0, 0, 0, chicago),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := model.Shift{Start: tt.start, End: tt.start.Add(tt.length)}

			from, to := Window(candidate, chicago, tt.extension)

			assert.True(t, tt.wantFrom.Equal(from), "from: got %s", from)
			assert.True(t, tt.wantTo.Equal(to), "to: got %s", to)
		})
	}
}
