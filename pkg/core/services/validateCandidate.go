package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
	"github.com/opscheduler/shiftcheck/pkg/utils/logging"
)

// ValidationStore defines the database operations needed to validate a candidate shift
type ValidationStore interface {
	db.ShiftReader
	GetPolicy(ctx context.Context) (*model.PolicyConfig, error)
	GetOperator(ctx context.Context, id string) (*model.Operator, error)
}

// Stage is a step of the validation state machine:
// Pending -> ConflictChecked -> FatigueChecked -> Accepted, or Rejected from any step
type Stage string

const (
	StagePending         Stage = "Pending"
	StageConflictChecked Stage = "ConflictChecked"
	StageFatigueChecked  Stage = "FatigueChecked"
	StageAccepted        Stage = "Accepted"
	StageRejected        Stage = "Rejected"
)

// Verdict is the terminal outcome of validating one candidate shift
type Verdict struct {
	Candidate model.Shift
	Stage     Stage
	// Passed is the last check the candidate got through before the verdict
	Passed    Stage
	Rejection *fatigue.RejectionError
	// Streak is the streak state after the whole shift set was analysed
	Streak fatigue.StreakState
}

func (v *Verdict) Accepted() bool {
	return v.Stage == StageAccepted
}

// Err returns the rejection as an error, or nil when the candidate was accepted
func (v *Verdict) Err() error {
	if v.Rejection == nil {
		return nil
	}
	return v.Rejection
}

func (v *Verdict) reject(rej *fatigue.RejectionError) *Verdict {
	v.Stage = StageRejected
	v.Rejection = rej
	return v
}

// LoadPolicy fetches the fatigue policy, mapping a missing policy to fatigue.ErrConfigMissing
func LoadPolicy(ctx context.Context, store interface {
	GetPolicy(ctx context.Context) (*model.PolicyConfig, error)
}) (*model.PolicyConfig, error) {
	policy, err := store.GetPolicy(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fatigue.ErrConfigMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fatigue policy: %w", err)
	}
	return policy, nil
}

// ValidateCandidate checks one candidate shift against job exclusivity, the operator's own
// schedule, and the fatigue policy. inFlight holds shifts created earlier in the same
// submission that must count toward streaks.
//
// A rejection is reported in the returned Verdict. The error is reserved for failures the
// caller cannot fix by changing the shift: missing policy, unknown operator, storage errors.
func ValidateCandidate(
	ctx context.Context,
	store ValidationStore,
	cfg *config.Config,
	logger *zap.Logger,
	candidate model.Shift,
	inFlight []model.Shift,
) (*Verdict, error) {
	policy, err := LoadPolicy(ctx, store)
	if err != nil {
		return nil, err
	}
	return validateWithPolicy(ctx, store, cfg, logger, *policy, candidate, inFlight)
}

func validateWithPolicy(
	ctx context.Context,
	store ValidationStore,
	cfg *config.Config,
	logger *zap.Logger,
	policy model.PolicyConfig,
	candidate model.Shift,
	inFlight []model.Shift,
) (*Verdict, error) {
	logger = logger.With(logging.ShiftFields(candidate.OperatorID, candidate.Start, candidate.End,
		string(candidate.Kind), candidate.Job)...)
	logger.Debug("Validating candidate shift", zap.String("shift_id", candidate.ID), zap.Int("in_flight", len(inFlight)))

	verdict := &Verdict{Candidate: candidate, Stage: StagePending, Passed: StagePending}
	evaluator := fatigue.NewEvaluator(policy)
	exclusive := cfg.ExclusiveJobSet()

	if candidate.OperatorID == "" {
		return nil, fmt.Errorf("candidate shift has no operator")
	}
	if !candidate.Kind.IsValid() {
		return nil, fmt.Errorf("candidate shift has unknown kind %q", candidate.Kind)
	}
	if rej := evaluator.CheckLength(candidate); rej != nil {
		return logRejection(logger, verdict.reject(rej)), nil
	}

	operator, err := store.GetOperator(ctx, candidate.OperatorID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", fatigue.ErrOperatorNotFound, candidate.OperatorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operator: %w", err)
	}
	if rej := fatigue.CheckTraining(candidate, *operator, exclusive); rej != nil {
		return logRejection(logger, verdict.reject(rej)), nil
	}

	// Step 1: job exclusivity and the operator's own time
	if exclusive.Contains(candidate.Job) {
		if locker, ok := store.(db.JobLocker); ok {
			if err := locker.LockJob(ctx, candidate.Job); err != nil {
				return nil, err
			}
		}
		holders, err := store.GetOverlappingJobShifts(ctx, candidate.Job, candidate.Start, candidate.End)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch job assignments: %w", err)
		}
		logger.Debug("Fetched job holders", zap.Int("count", len(holders)))
		if rej := fatigue.CheckJobConflict(candidate, holders, exclusive); rej != nil {
			return logRejection(logger, verdict.reject(rej)), nil
		}
	}

	// The fatigue window always covers the candidate, so one fetch serves both checks
	from, to := fatigue.Window(candidate, cfg.Location(), cfg.WindowExtensionDays)
	persisted, err := store.GetOperatorShifts(ctx, candidate.OperatorID, from, to, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operator shifts: %w", err)
	}
	logger.Debug("Fetched operator shifts",
		zap.Time("window_from", from), zap.Time("window_to", to), zap.Int("count", len(persisted)))

	existing := make([]model.Shift, 0, len(persisted)+len(inFlight))
	existing = append(existing, persisted...)
	existing = append(existing, inFlight...)
	if rej := fatigue.CheckSelfOverlap(candidate, existing); rej != nil {
		return logRejection(logger, verdict.reject(rej)), nil
	}
	verdict.Passed = StageConflictChecked

	// Step 2: streaks and rest
	shiftSet := fatigue.BuildShiftSet(candidate, persisted, inFlight)
	result := fatigue.AnalyzeStreaks(shiftSet, evaluator)
	verdict.Streak = result.Final
	if result.Violation != nil {
		return logRejection(logger, verdict.reject(result.Violation)), nil
	}
	verdict.Passed = StageFatigueChecked

	verdict.Stage = StageAccepted
	logger.Info("Shift accepted",
		zap.Int("consecutive_shifts", result.Final.ConsecutiveShifts),
		zap.Int("consecutive_night_shifts", result.Final.ConsecutiveNightShifts))

	return verdict, nil
}

func logRejection(logger *zap.Logger, v *Verdict) *Verdict {
	logger.Warn("Shift rejected",
		zap.String("rule", string(v.Rejection.Rule)),
		zap.String("reason", v.Rejection.Reason),
		zap.String("passed", string(v.Passed)))
	return v
}
