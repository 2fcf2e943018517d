package commands

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/sqlite"
)

func testApp(t *testing.T, withPolicy bool) *AppContext {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if withPolicy {
		require.NoError(t, store.SavePolicy(context.Background(), model.PolicyConfig{
			MaxConsecutiveShifts:      7,
			MinRestAfterMaxShifts:     48,
			MaxConsecutiveNightShifts: 4,
			MinRestAfterNightShifts:   48,
			MinRestAfter3Shifts:       36,
			ShiftLengthHours:          12,
			MaxHoursInDay:             12,
		}))
	}

	return &AppContext{
		Cfg: &config.Config{
			SQLitePath:      ":memory:",
			Timezone:        "America/Chicago",
			DayShiftStart:   "04:45",
			NightShiftStart: "16:45",
		},
		Database: store,
		Logger:   zap.NewNop(),
		Ctx:      context.Background(),
	}
}

func parseShiftFlags(t *testing.T, args ...string) *shiftFlags {
	t.Helper()
	var f shiftFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.bind(fs)
	require.NoError(t, fs.Parse(args))
	return &f
}

func TestShiftFlags_BuildFromDate(t *testing.T) {
	app := testApp(t, true)
	f := parseShiftFlags(t, "--operator", "op-1", "--job", "Tank Farm", "--date", "2024-08-12", "--shift", "NIGHT")

	shift, err := f.build(app)
	require.NoError(t, err)

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	assert.Equal(t, model.ShiftNight, shift.Kind)
	assert.True(t, time.Date(2024, 8, 12, 16, 45, 0, 0, chicago).Equal(shift.Start))
	assert.Equal(t, 12*time.Hour, shift.Duration())
	assert.Equal(t, "Tank Farm", shift.Job)
}

func TestShiftFlags_BuildFromExplicitTimes(t *testing.T) {
	app := testApp(t, false)
	f := parseShiftFlags(t, "--operator", "op-1", "--job", "Tank Farm",
		"--start", "2024-08-12T06:00:00Z", "--end", "2024-08-12T10:00:00Z")

	shift, err := f.build(app)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, shift.Duration())
	assert.Equal(t, model.ShiftDay, shift.Kind)
}

func TestShiftFlags_BuildErrors(t *testing.T) {
	tests := []struct {
		name       string
		withPolicy bool
		args       []string
		wantErr    error
	}{
		{"no date or start", true, []string{"--operator", "op-1", "--job", "x"}, nil},
		{"bad kind", true, []string{"--operator", "op-1", "--job", "x", "--date", "2024-08-12", "--shift", "swing"}, nil},
		{"bad date", true, []string{"--operator", "op-1", "--job", "x", "--date", "12/08/2024"}, nil},
		{"start without end", true, []string{"--operator", "op-1", "--job", "x", "--start", "2024-08-12T06:00:00Z"}, nil},
		{"no policy for slot length", false, []string{"--operator", "op-1", "--job", "x", "--date", "2024-08-12"}, fatigue.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testApp(t, tt.withPolicy)
			_, err := parseShiftFlags(t, tt.args...).build(app)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
