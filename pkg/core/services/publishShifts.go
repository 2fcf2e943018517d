package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// PublishStore defines the database operations needed to publish shifts
type PublishStore interface {
	GetOperatorShifts(ctx context.Context, operatorID string, from, to time.Time, published *bool) ([]model.Shift, error)
	PublishShifts(ctx context.Context, ids []string) (int, error)
}

// PublishShifts makes the given draft shifts visible on the public schedule. Drafts were
// validated when created, so publishing does not validate again.
func PublishShifts(ctx context.Context, store PublishStore, logger *zap.Logger, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	logger.Debug("Publishing shifts", zap.Strings("ids", ids))
	n, err := store.PublishShifts(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to publish shifts: %w", err)
	}

	logger.Info("Shifts published", zap.Int("requested", len(ids)), zap.Int("published", n))
	return n, nil
}

// PublishDrafts publishes every draft of the operator that overlaps [from, to)
func PublishDrafts(ctx context.Context, store PublishStore, logger *zap.Logger, operatorID string, from, to time.Time) (int, error) {
	draft := false
	drafts, err := store.GetOperatorShifts(ctx, operatorID, from, to, &draft)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch draft shifts: %w", err)
	}

	logger.Debug("Found draft shifts", zap.String("operator_id", operatorID), zap.Int("count", len(drafts)))

	ids := make([]string, 0, len(drafts))
	for _, s := range drafts {
		ids = append(ids, s.ID)
	}
	return PublishShifts(ctx, store, logger, ids)
}
