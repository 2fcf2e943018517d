package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// GetPolicy returns the stored fatigue policy, or fatigue.ErrConfigMissing when none is set
func GetPolicy(ctx context.Context, store db.PolicyStore) (*model.PolicyConfig, error) {
	return LoadPolicy(ctx, store)
}

// SetPolicy validates and stores the fatigue policy, replacing any previous one
func SetPolicy(ctx context.Context, store db.PolicyStore, logger *zap.Logger, policy model.PolicyConfig) error {
	if err := config.ValidatePolicy(policy); err != nil {
		return err
	}

	if err := store.SavePolicy(ctx, policy); err != nil {
		return fmt.Errorf("failed to save fatigue policy: %w", err)
	}

	logger.Info("Fatigue policy updated",
		zap.Int("max_consecutive_shifts", policy.MaxConsecutiveShifts),
		zap.Int("min_rest_after_max_shifts", policy.MinRestAfterMaxShifts),
		zap.Int("max_consecutive_night_shifts", policy.MaxConsecutiveNightShifts),
		zap.Int("min_rest_after_night_shifts", policy.MinRestAfterNightShifts),
		zap.Int("min_rest_after_3_shifts", policy.MinRestAfter3Shifts),
		zap.Int("shift_length_hours", policy.ShiftLengthHours),
		zap.Int("max_hours_in_day", policy.MaxHoursInDay))
	return nil
}

// SeedPolicy stores cfg.DefaultPolicy when no policy has been set yet. It reports whether
// a policy was written; an existing policy is never overwritten.
func SeedPolicy(ctx context.Context, store db.PolicyStore, cfg *config.Config, logger *zap.Logger) (bool, error) {
	if cfg.DefaultPolicy == nil {
		return false, fmt.Errorf("no defaultPolicy in config to seed from")
	}

	_, err := store.GetPolicy(ctx)
	if err == nil {
		logger.Info("Fatigue policy already set, not seeding")
		return false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return false, fmt.Errorf("failed to fetch fatigue policy: %w", err)
	}

	if err := SetPolicy(ctx, store, logger, *cfg.DefaultPolicy); err != nil {
		return false, err
	}
	return true, nil
}
