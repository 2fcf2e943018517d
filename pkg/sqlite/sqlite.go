/*
Package sqlite provides a SQLite-backed implementation of db.Database for local and
single-user deployments.

The schema is created on New. Timestamps are stored as fixed-width UTC text so that the
overlap predicates can compare them as strings. Operator job lists are stored as JSON.

WithOperatorLock serialises all transactions through one mutex: SQLite allows a single
writer anyway, so a per-operator lock would only move the wait into the driver.

Use ":memory:" for an in-memory database.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// timeLayout is fixed width down to the nanosecond, so it sorts lexicographically in
// chronological order and round-trips any time.Time instant
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements db.Database using SQLite
type Store struct {
	db *sql.DB
	mu *sync.Mutex
	q  querier
	// inTx is set on the Store handed to a WithOperatorLock callback
	inTx bool
}

var _ db.Database = (*Store)(nil)

// New opens the database at dbPath and creates the schema
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database
		conn.SetMaxOpenConns(1)
	}

	store := &Store{db: conn, mu: &sync.Mutex{}, q: conn}
	if err := store.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS operators (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		letter TEXT NOT NULL DEFAULT '',
		employee_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		team TEXT NOT NULL DEFAULT '',
		jobs_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		operator_id TEXT NOT NULL REFERENCES operators(id),
		title TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('Day', 'Night')),
		job TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		CHECK (end_time > start_time)
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_operator_start ON shifts(operator_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_shifts_job_start ON shifts(job, start_time);

	CREATE TABLE IF NOT EXISTS fatigue_policy (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		max_consecutive_shifts INTEGER NOT NULL,
		min_rest_after_max_shifts INTEGER NOT NULL,
		max_consecutive_night_shifts INTEGER NOT NULL,
		min_rest_after_night_shifts INTEGER NOT NULL,
		min_rest_after_3_shifts INTEGER NOT NULL,
		shift_length_hours INTEGER NOT NULL,
		max_hours_in_day INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// WithOperatorLock runs fn inside a transaction. Transactions are serialised store-wide.
func (s *Store) WithOperatorLock(ctx context.Context, operatorID string, fn func(ctx context.Context, tx db.Database) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, &Store{db: s.db, mu: s.mu, q: sqlTx, inTx: true}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction for operator %s: %w", operatorID, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// =============================================================================
// SHIFTS
// =============================================================================

const shiftColumns = `id, operator_id, title, start_time, end_time, kind, job, published`

type scanner interface {
	Scan(dest ...any) error
}

func scanShift(row scanner) (model.Shift, error) {
	var s model.Shift
	var start, end, kind string
	if err := row.Scan(&s.ID, &s.OperatorID, &s.Title, &start, &end, &kind, &s.Job, &s.Published); err != nil {
		return model.Shift{}, err
	}
	var err error
	if s.Start, err = parseTime(start); err != nil {
		return model.Shift{}, fmt.Errorf("invalid start_time %q: %w", start, err)
	}
	if s.End, err = parseTime(end); err != nil {
		return model.Shift{}, fmt.Errorf("invalid end_time %q: %w", end, err)
	}
	s.Kind = model.ShiftKind(kind)
	return s, nil
}

func (s *Store) queryShifts(ctx context.Context, query string, args ...any) ([]model.Shift, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []model.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

func (s *Store) GetOperatorShifts(ctx context.Context, operatorID string, from, to time.Time, published *bool) ([]model.Shift, error) {
	return s.queryShifts(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE operator_id = ? AND start_time < ? AND end_time > ?
		  AND (? IS NULL OR published = ?)
		ORDER BY start_time, rowid
	`, operatorID, formatTime(to), formatTime(from), published, published)
}

func (s *Store) GetOverlappingJobShifts(ctx context.Context, job string, start, end time.Time) ([]model.Shift, error) {
	return s.queryShifts(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE job = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time, rowid
	`, job, formatTime(end), formatTime(start))
}

func (s *Store) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	sh, err := scanShift(s.q.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &sh, nil
}

func (s *Store) InsertShift(ctx context.Context, sh *model.Shift) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shifts (id, operator_id, title, start_time, end_time, kind, job, published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sh.ID, sh.OperatorID, sh.Title, formatTime(sh.Start), formatTime(sh.End), string(sh.Kind), sh.Job, sh.Published)
	if err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

func (s *Store) UpdateShift(ctx context.Context, sh *model.Shift) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE shifts
		SET operator_id = ?, title = ?, start_time = ?, end_time = ?, kind = ?, job = ?, published = ?
		WHERE id = ?
	`, sh.OperatorID, sh.Title, formatTime(sh.Start), formatTime(sh.End), string(sh.Kind), sh.Job, sh.Published, sh.ID)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteShift(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) PublishShifts(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	res, err := s.q.ExecContext(ctx,
		`UPDATE shifts SET published = 1 WHERE published = 0 AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to publish shifts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count published shifts: %w", err)
	}
	return int(n), nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// =============================================================================
// FATIGUE POLICY
// =============================================================================

func (s *Store) GetPolicy(ctx context.Context) (*model.PolicyConfig, error) {
	var p model.PolicyConfig
	err := s.q.QueryRowContext(ctx, `
		SELECT max_consecutive_shifts, min_rest_after_max_shifts,
		       max_consecutive_night_shifts, min_rest_after_night_shifts,
		       min_rest_after_3_shifts, shift_length_hours, max_hours_in_day
		FROM fatigue_policy WHERE id = 1
	`).Scan(&p.MaxConsecutiveShifts, &p.MinRestAfterMaxShifts,
		&p.MaxConsecutiveNightShifts, &p.MinRestAfterNightShifts,
		&p.MinRestAfter3Shifts, &p.ShiftLengthHours, &p.MaxHoursInDay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fatigue policy: %w", err)
	}
	return &p, nil
}

func (s *Store) SavePolicy(ctx context.Context, p model.PolicyConfig) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO fatigue_policy (id, max_consecutive_shifts, min_rest_after_max_shifts,
			max_consecutive_night_shifts, min_rest_after_night_shifts,
			min_rest_after_3_shifts, shift_length_hours, max_hours_in_day, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.MaxConsecutiveShifts, p.MinRestAfterMaxShifts,
		p.MaxConsecutiveNightShifts, p.MinRestAfterNightShifts,
		p.MinRestAfter3Shifts, p.ShiftLengthHours, p.MaxHoursInDay,
		formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save fatigue policy: %w", err)
	}
	return nil
}

// =============================================================================
// OPERATORS
// =============================================================================

const operatorColumns = `id, name, letter, employee_id, phone, team, jobs_json`

func scanOperator(row scanner) (model.Operator, error) {
	var o model.Operator
	var jobsJSON string
	if err := row.Scan(&o.ID, &o.Name, &o.Letter, &o.EmployeeID, &o.Phone, &o.Team, &jobsJSON); err != nil {
		return model.Operator{}, err
	}
	if err := json.Unmarshal([]byte(jobsJSON), &o.Jobs); err != nil {
		return model.Operator{}, fmt.Errorf("invalid jobs for operator %s: %w", o.ID, err)
	}
	return o, nil
}

func (s *Store) GetOperator(ctx context.Context, id string) (*model.Operator, error) {
	o, err := scanOperator(s.q.QueryRowContext(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &o, nil
}

func (s *Store) ListOperators(ctx context.Context) ([]model.Operator, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+operatorColumns+` FROM operators ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query operators: %w", err)
	}
	defer rows.Close()

	var operators []model.Operator
	for rows.Next() {
		o, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, o)
	}
	return operators, rows.Err()
}

func (s *Store) UpsertOperator(ctx context.Context, o *model.Operator) error {
	jobs := o.Jobs
	if jobs == nil {
		jobs = []string{}
	}
	jobsJSON, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("failed to encode jobs: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO operators (id, name, letter, employee_id, phone, team, jobs_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			letter = excluded.letter,
			employee_id = excluded.employee_id,
			phone = excluded.phone,
			team = excluded.team,
			jobs_json = excluded.jobs_json
	`, o.ID, o.Name, o.Letter, o.EmployeeID, o.Phone, o.Team, string(jobsJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert operator: %w", err)
	}
	return nil
}
