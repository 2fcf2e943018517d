package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

const shiftColumns = `id, operator_id, title, start_time, end_time, kind, job, published`

func scanShift(row pgx.Row) (model.Shift, error) {
	var s model.Shift
	var kind string
	if err := row.Scan(&s.ID, &s.OperatorID, &s.Title, &s.Start, &s.End, &kind, &s.Job, &s.Published); err != nil {
		return model.Shift{}, err
	}
	s.Kind = model.ShiftKind(kind)
	return s, nil
}

func (d *DB) queryShifts(ctx context.Context, query string, args ...any) ([]model.Shift, error) {
	rows, err := d.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []model.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}

// GetOperatorShifts retrieves the operator's shifts overlapping [from, to), oldest first
func (d *DB) GetOperatorShifts(ctx context.Context, operatorID string, from, to time.Time, published *bool) ([]model.Shift, error) {
	return d.queryShifts(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE operator_id = $1
		  AND start_time < $3 AND end_time > $2
		  AND ($4::boolean IS NULL OR published = $4)
		ORDER BY start_time, seq
	`, operatorID, from.UTC(), to.UTC(), published)
}

// GetOverlappingJobShifts retrieves every operator's shifts for job overlapping [start, end)
func (d *DB) GetOverlappingJobShifts(ctx context.Context, job string, start, end time.Time) ([]model.Shift, error) {
	return d.queryShifts(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE job = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time, seq
	`, job, start.UTC(), end.UTC())
}

// GetShift retrieves a single shift by ID
func (d *DB) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	s, err := scanShift(d.q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &s, nil
}

// InsertShift inserts a new shift record
func (d *DB) InsertShift(ctx context.Context, shift *model.Shift) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO shifts (id, operator_id, title, start_time, end_time, kind, job, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, shift.ID, shift.OperatorID, shift.Title, shift.Start.UTC(), shift.End.UTC(), string(shift.Kind), shift.Job, shift.Published)
	if err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

// UpdateShift overwrites every field of an existing shift
func (d *DB) UpdateShift(ctx context.Context, shift *model.Shift) error {
	tag, err := d.q.Exec(ctx, `
		UPDATE shifts
		SET operator_id = $2, title = $3, start_time = $4, end_time = $5, kind = $6, job = $7, published = $8
		WHERE id = $1
	`, shift.ID, shift.OperatorID, shift.Title, shift.Start.UTC(), shift.End.UTC(), string(shift.Kind), shift.Job, shift.Published)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeleteShift removes a shift
func (d *DB) DeleteShift(ctx context.Context, id string) error {
	tag, err := d.q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// PublishShifts marks draft shifts as published and returns how many changed
func (d *DB) PublishShifts(ctx context.Context, ids []string) (int, error) {
	tag, err := d.q.Exec(ctx, `
		UPDATE shifts SET published = TRUE WHERE id = ANY($1) AND NOT published
	`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to publish shifts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
