package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// shiftOff marks a rest day in the rotation pattern
const shiftOff model.ShiftKind = "Off"

// maxParallelOperators bounds how many operators are scheduled at once
const maxParallelOperators = 4

// RotationPattern is the DuPont-style rotation every team follows from its start date
var RotationPattern = []model.ShiftKind{
	model.ShiftDay, model.ShiftDay, model.ShiftDay, model.ShiftDay,
	shiftOff, shiftOff, shiftOff, shiftOff, shiftOff, shiftOff, shiftOff,
	model.ShiftNight, model.ShiftNight, model.ShiftNight, model.ShiftNight,
	shiftOff, shiftOff, shiftOff,
	model.ShiftDay, model.ShiftDay, model.ShiftDay,
	shiftOff,
	model.ShiftNight, model.ShiftNight, model.ShiftNight,
	shiftOff, shiftOff, shiftOff,
	model.ShiftDay, model.ShiftDay, model.ShiftDay, model.ShiftDay,
}

// ShiftForDate returns the shift kind a team works on date, given the date its pattern
// started. ok is false on a rest day. Dates before the pattern start wrap backwards.
func ShiftForDate(patternStart, date time.Time) (kind model.ShiftKind, ok bool) {
	days := calendarDaysBetween(patternStart, date)
	n := len(RotationPattern)
	idx := ((days % n) + n) % n
	kind = RotationPattern[idx]
	if kind == shiftOff {
		return "", false
	}
	return kind, true
}

func calendarDaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// OperatorSchedule is the generated week of one operator
type OperatorSchedule struct {
	Operator model.Operator
	// Planned holds the pattern's working days, before validation
	Planned []model.Shift
	Result  *RangeResult
}

// TeamScheduleResult is the outcome of generating a week for every rotating operator
type TeamScheduleResult struct {
	WeekStart time.Time
	Schedules []OperatorSchedule
	// Skipped lists operators outside the rotation (probationary, replacement or no team)
	Skipped []model.Operator
}

// PlanOperatorWeek returns the unsaved draft shifts the operator's team pattern assigns in
// the seven days from weekStart
func PlanOperatorWeek(cfg *config.Config, policy model.PolicyConfig, operator model.Operator, patternStart, weekStart time.Time) []model.Shift {
	clock := cfg.ShiftClock()
	var planned []model.Shift
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		kind, ok := ShiftForDate(patternStart, day)
		if !ok {
			continue
		}
		start, end := clock.ShiftTimes(day, kind, policy.ShiftLength())
		s := model.Shift{
			OperatorID: operator.ID,
			Start:      start,
			End:        end,
			Kind:       kind,
			Job:        cfg.GeneratedJob,
		}
		s.Title = s.DefaultTitle()
		planned = append(planned, s)
	}
	return planned
}

// GenerateTeamSchedule fills the ISO week containing weekOf with draft shifts for every
// operator on a rotating team. Each operator's week is validated and persisted like a
// range, stopping at that operator's first rejection. Different operators are scheduled
// concurrently.
func GenerateTeamSchedule(
	ctx context.Context,
	database db.Database,
	cfg *config.Config,
	logger *zap.Logger,
	weekOf time.Time,
) (*TeamScheduleResult, error) {
	policy, err := LoadPolicy(ctx, database)
	if err != nil {
		return nil, err
	}

	teamStarts, err := cfg.TeamStartDates()
	if err != nil {
		return nil, err
	}

	operators, err := database.ListOperators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operators: %w", err)
	}

	clock := cfg.ShiftClock()
	weekStart := clock.StartOfDay(weekOf)
	weekStart = weekStart.AddDate(0, 0, -((int(weekStart.Weekday()) + 6) % 7))

	logger.Debug("Generating team schedule",
		zap.Time("week_start", weekStart), zap.Int("operators", len(operators)))

	result := &TeamScheduleResult{WeekStart: weekStart}
	for _, op := range operators {
		if op.Team == model.TeamProbationary || op.Team == model.TeamReplacement {
			logger.Debug("Skipping operator outside rotation", zap.String("operator", op.Name), zap.String("team", op.Team))
			result.Skipped = append(result.Skipped, op)
			continue
		}
		patternStart, ok := teamStarts[op.Team]
		if !ok {
			logger.Warn("Operator has no valid team", zap.String("operator", op.Name), zap.String("team", op.Team))
			result.Skipped = append(result.Skipped, op)
			continue
		}
		result.Schedules = append(result.Schedules, OperatorSchedule{
			Operator: op,
			Planned:  PlanOperatorWeek(cfg, *policy, op, patternStart, weekStart),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelOperators)
	for i := range result.Schedules {
		sched := &result.Schedules[i]
		g.Go(func() error {
			res, err := persistRun(gctx, database, cfg, logger, *policy, sched.Operator.ID, sched.Planned)
			if err != nil {
				return fmt.Errorf("failed to schedule operator %s: %w", sched.Operator.Name, err)
			}
			sched.Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	created := 0
	for _, s := range result.Schedules {
		created += len(s.Result.Created)
	}
	logger.Info("Team schedule generated",
		zap.Time("week_start", weekStart),
		zap.Int("operators", len(result.Schedules)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("created", created))

	return result, nil
}
