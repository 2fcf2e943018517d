package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// errRangeRejected aborts an atomic range transaction so nothing from the run is kept
var errRangeRejected = errors.New("range rejected")

// RangeResult is the outcome of creating a run of shifts
type RangeResult struct {
	// Verdicts holds one entry per day checked, ending at the first rejection
	Verdicts []*Verdict
	// Created lists the shifts that were persisted
	Created []model.Shift
}

// Rejected returns the verdict that stopped the run, or nil when every day was accepted
func (r *RangeResult) Rejected() *Verdict {
	if len(r.Verdicts) == 0 {
		return nil
	}
	last := r.Verdicts[len(r.Verdicts)-1]
	if last.Accepted() {
		return nil
	}
	return last
}

// CreateShift validates a new draft shift and persists it when accepted. Validation and the
// insert run under the operator's lock so concurrent submissions cannot both pass against
// the same snapshot.
func CreateShift(
	ctx context.Context,
	database db.Database,
	cfg *config.Config,
	logger *zap.Logger,
	candidate model.Shift,
) (*Verdict, error) {
	candidate.ID = ""
	candidate.Published = false
	if candidate.Title == "" {
		candidate.Title = candidate.DefaultTitle()
	}

	var verdict *Verdict
	err := database.WithOperatorLock(ctx, candidate.OperatorID, func(ctx context.Context, tx db.Database) error {
		v, err := ValidateCandidate(ctx, tx, cfg, logger, candidate, nil)
		if err != nil {
			return err
		}
		verdict = v
		if !v.Accepted() {
			return nil
		}

		shift := v.Candidate
		shift.ID = uuid.New().String()
		if err := tx.InsertShift(ctx, &shift); err != nil {
			return fmt.Errorf("failed to insert shift: %w", err)
		}
		v.Candidate = shift
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verdict.Accepted() {
		logger.Info("Shift created", zap.String("shift_id", verdict.Candidate.ID))
	}
	return verdict, nil
}

// UpdateShift re-validates an edited shift against everything else the operator holds and
// saves it when accepted. The stored version is replaced in the shift set by the edit, so
// it never conflicts with itself. Publication state is kept from the stored shift.
func UpdateShift(
	ctx context.Context,
	database db.Database,
	cfg *config.Config,
	logger *zap.Logger,
	edited model.Shift,
) (*Verdict, error) {
	if edited.ID == "" {
		return nil, fmt.Errorf("%w: cannot update a shift without an id", ErrInvalidRequest)
	}

	var verdict *Verdict
	err := database.WithOperatorLock(ctx, edited.OperatorID, func(ctx context.Context, tx db.Database) error {
		stored, err := tx.GetShift(ctx, edited.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch shift %s: %w", edited.ID, err)
		}
		edited.Published = stored.Published
		if edited.Title == "" {
			edited.Title = stored.Title
		}

		v, err := ValidateCandidate(ctx, tx, cfg, logger, edited, nil)
		if err != nil {
			return err
		}
		verdict = v
		if !v.Accepted() {
			return nil
		}

		if err := tx.UpdateShift(ctx, &edited); err != nil {
			return fmt.Errorf("failed to update shift: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verdict.Accepted() {
		logger.Info("Shift updated", zap.String("shift_id", edited.ID))
	}
	return verdict, nil
}

// CreateShiftRange validates and persists a run of daily draft shifts, stopping at the
// first rejection.
//
// With cfg.AtomicRanges the whole run shares one transaction and a rejection rolls back
// every day. Otherwise each day is committed on acceptance, and days persisted before a
// rejection remain.
func CreateShiftRange(
	ctx context.Context,
	database db.Database,
	cfg *config.Config,
	logger *zap.Logger,
	req RangeRequest,
) (*RangeResult, error) {
	policy, err := LoadPolicy(ctx, database)
	if err != nil {
		return nil, err
	}

	candidates, err := rangeCandidates(cfg, *policy, req)
	if err != nil {
		return nil, err
	}

	logger.Debug("Creating shift range",
		zap.String("operator_id", req.OperatorID),
		zap.Int("days", len(candidates)),
		zap.Bool("atomic", cfg.AtomicRanges))

	return persistRun(ctx, database, cfg, logger, *policy, req.OperatorID, candidates)
}

// persistRun validates and inserts chronologically ordered candidates of one operator.
// Each accepted shift joins the in-flight batch of the next.
func persistRun(
	ctx context.Context,
	database db.Database,
	cfg *config.Config,
	logger *zap.Logger,
	policy model.PolicyConfig,
	operatorID string,
	candidates []model.Shift,
) (*RangeResult, error) {
	result := &RangeResult{}

	// createDay validates one day against tx and inserts it when accepted
	createDay := func(ctx context.Context, tx db.Database, candidate model.Shift) (*Verdict, error) {
		v, err := validateWithPolicy(ctx, tx, cfg, logger, policy, candidate, result.Created)
		if err != nil {
			return nil, err
		}
		if !v.Accepted() {
			return v, nil
		}
		shift := v.Candidate
		shift.ID = uuid.New().String()
		if err := tx.InsertShift(ctx, &shift); err != nil {
			return nil, fmt.Errorf("failed to insert shift: %w", err)
		}
		v.Candidate = shift
		return v, nil
	}

	if cfg.AtomicRanges {
		err := database.WithOperatorLock(ctx, operatorID, func(ctx context.Context, tx db.Database) error {
			for _, candidate := range candidates {
				v, err := createDay(ctx, tx, candidate)
				if err != nil {
					return err
				}
				result.Verdicts = append(result.Verdicts, v)
				if !v.Accepted() {
					return errRangeRejected
				}
				result.Created = append(result.Created, v.Candidate)
			}
			return nil
		})
		if errors.Is(err, errRangeRejected) {
			logger.Warn("Range rejected, rolled back",
				zap.String("operator_id", operatorID), zap.Int("rolled_back", len(result.Created)))
			result.Created = nil
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		logger.Info("Shift range created", zap.String("operator_id", operatorID), zap.Int("created", len(result.Created)))
		return result, nil
	}

	for _, candidate := range candidates {
		var verdict *Verdict
		err := database.WithOperatorLock(ctx, operatorID, func(ctx context.Context, tx db.Database) error {
			v, err := createDay(ctx, tx, candidate)
			verdict = v
			return err
		})
		if err != nil {
			return result, err
		}
		result.Verdicts = append(result.Verdicts, verdict)
		if !verdict.Accepted() {
			logger.Warn("Range stopped at rejected day",
				zap.String("operator_id", operatorID),
				zap.Time("day", candidate.Start), zap.Int("created", len(result.Created)))
			return result, nil
		}
		result.Created = append(result.Created, verdict.Candidate)
	}

	logger.Info("Shift range created", zap.String("operator_id", operatorID), zap.Int("created", len(result.Created)))
	return result, nil
}
