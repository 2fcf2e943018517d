package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// ViewScheduleStore defines the database operations needed to view a schedule
type ViewScheduleStore interface {
	GetOperator(ctx context.Context, id string) (*model.Operator, error)
	GetOperatorShifts(ctx context.Context, operatorID string, from, to time.Time, published *bool) ([]model.Shift, error)
	GetPolicy(ctx context.Context) (*model.PolicyConfig, error)
}

// ScheduledShift is a stored shift with the streak state reached once it is worked
type ScheduledShift struct {
	Shift  model.Shift
	Streak fatigue.StreakState
	// Violation is set on the shift where the stored schedule first breaks the current
	// policy, e.g. after the policy was tightened. Later shifts are not analysed.
	Violation *fatigue.RejectionError
	Analysed  bool
}

// ScheduleView is an operator's shifts over a date range
type ScheduleView struct {
	Operator model.Operator
	From     time.Time
	To       time.Time
	Policy   model.PolicyConfig
	Shifts   []ScheduledShift
}

// ViewSchedule returns the operator's shifts overlapping [from, to) with the streak counters
// at each shift. Counting starts at the first shift in the range, so a streak running into
// the range from earlier is undercounted.
func ViewSchedule(
	ctx context.Context,
	store ViewScheduleStore,
	logger *zap.Logger,
	operatorID string,
	from, to time.Time,
) (*ScheduleView, error) {
	policy, err := LoadPolicy(ctx, store)
	if err != nil {
		return nil, err
	}

	operator, err := store.GetOperator(ctx, operatorID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", fatigue.ErrOperatorNotFound, operatorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operator: %w", err)
	}

	shifts, err := store.GetOperatorShifts(ctx, operatorID, from, to, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operator shifts: %w", err)
	}
	logger.Debug("Fetched schedule", zap.String("operator_id", operatorID), zap.Int("shifts", len(shifts)))

	view := &ScheduleView{
		Operator: *operator,
		From:     from,
		To:       to,
		Policy:   *policy,
		Shifts:   make([]ScheduledShift, len(shifts)),
	}

	evaluator := fatigue.NewEvaluator(*policy)
	for i, s := range shifts {
		view.Shifts[i].Shift = s
	}
	for i := range shifts {
		result := fatigue.AnalyzeStreaks(shifts[:i+1], evaluator)
		view.Shifts[i].Streak = result.Final
		view.Shifts[i].Analysed = true
		if result.Violation != nil {
			view.Shifts[i].Violation = result.Violation
			logger.Warn("Stored schedule violates fatigue policy",
				zap.String("operator_id", operatorID),
				zap.String("rule", string(result.Violation.Rule)),
				zap.Time("at", result.Violation.Date))
			break
		}
	}

	return view, nil
}
