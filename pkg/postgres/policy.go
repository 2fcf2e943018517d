package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// GetPolicy retrieves the fatigue policy, or db.ErrNotFound when it has never been set
func (d *DB) GetPolicy(ctx context.Context) (*model.PolicyConfig, error) {
	var p model.PolicyConfig
	err := d.q.QueryRow(ctx, `
		SELECT max_consecutive_shifts, min_rest_after_max_shifts,
		       max_consecutive_night_shifts, min_rest_after_night_shifts,
		       min_rest_after_3_shifts, shift_length_hours, max_hours_in_day
		FROM fatigue_policy
		WHERE id = 1
	`).Scan(&p.MaxConsecutiveShifts, &p.MinRestAfterMaxShifts,
		&p.MaxConsecutiveNightShifts, &p.MinRestAfterNightShifts,
		&p.MinRestAfter3Shifts, &p.ShiftLengthHours, &p.MaxHoursInDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fatigue policy: %w", err)
	}
	return &p, nil
}

// SavePolicy inserts or replaces the fatigue policy
func (d *DB) SavePolicy(ctx context.Context, p model.PolicyConfig) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO fatigue_policy (id, max_consecutive_shifts, min_rest_after_max_shifts,
			max_consecutive_night_shifts, min_rest_after_night_shifts,
			min_rest_after_3_shifts, shift_length_hours, max_hours_in_day, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			max_consecutive_shifts = EXCLUDED.max_consecutive_shifts,
			min_rest_after_max_shifts = EXCLUDED.min_rest_after_max_shifts,
			max_consecutive_night_shifts = EXCLUDED.max_consecutive_night_shifts,
			min_rest_after_night_shifts = EXCLUDED.min_rest_after_night_shifts,
			min_rest_after_3_shifts = EXCLUDED.min_rest_after_3_shifts,
			shift_length_hours = EXCLUDED.shift_length_hours,
			max_hours_in_day = EXCLUDED.max_hours_in_day,
			updated_at = EXCLUDED.updated_at
	`, p.MaxConsecutiveShifts, p.MinRestAfterMaxShifts,
		p.MaxConsecutiveNightShifts, p.MinRestAfterNightShifts,
		p.MinRestAfter3Shifts, p.ShiftLengthHours, p.MaxHoursInDay)
	if err != nil {
		return fmt.Errorf("failed to save fatigue policy: %w", err)
	}
	return nil
}
