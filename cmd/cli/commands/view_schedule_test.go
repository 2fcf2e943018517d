package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

func TestStreakColor(t *testing.T) {
	green := "GREEN"
	yellow := "YELLOW"
	red := "RED"

	policy := model.PolicyConfig{MaxConsecutiveShifts: 7, MaxConsecutiveNightShifts: 4}

	tests := []struct {
		name     string
		shifts   int
		nights   int
		expected string
	}{
		{"first day shift", 1, 0, green},
		{"5 of 7, no nights", 5, 0, green},
		{"6 of 7 - yellow", 6, 0, yellow},
		{"7 of 7 - red", 7, 0, red},
		{"3 nights of 4 - yellow", 3, 3, yellow},
		{"4 nights of 4 - red", 4, 4, red},
		{"2 nights of 4", 2, 2, green},
		{"6 shifts with 1 night - yellow", 6, 1, yellow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := fatigue.StreakState{ConsecutiveShifts: tt.shifts, ConsecutiveNightShifts: tt.nights}
			assert.Equal(t, tt.expected, streakColor(state, policy, green, yellow, red))
		})
	}
}

func TestStreakColor_SmallLimits(t *testing.T) {
	policy := model.PolicyConfig{MaxConsecutiveShifts: 1, MaxConsecutiveNightShifts: 1}

	assert.Equal(t, "RED", streakColor(fatigue.StreakState{ConsecutiveShifts: 1}, policy, "GREEN", "YELLOW", "RED"))
	assert.Equal(t, "YELLOW", streakColor(fatigue.StreakState{}, policy, "GREEN", "YELLOW", "RED"))
}
