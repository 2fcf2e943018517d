package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

const operatorColumns = `id, name, letter, employee_id, phone, team, jobs`

func scanOperator(row pgx.Row) (model.Operator, error) {
	var o model.Operator
	err := row.Scan(&o.ID, &o.Name, &o.Letter, &o.EmployeeID, &o.Phone, &o.Team, &o.Jobs)
	return o, err
}

// GetOperator retrieves a single operator by ID
func (d *DB) GetOperator(ctx context.Context, id string) (*model.Operator, error) {
	o, err := scanOperator(d.q.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &o, nil
}

// ListOperators retrieves all operators ordered by name
func (d *DB) ListOperators(ctx context.Context) ([]model.Operator, error) {
	rows, err := d.q.Query(ctx, `SELECT `+operatorColumns+` FROM operators ORDER BY name`)
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

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operators: %w", err)
	}

	return operators, nil
}

// UpsertOperator inserts an operator or replaces the existing record with the same ID
func (d *DB) UpsertOperator(ctx context.Context, o *model.Operator) error {
	jobs := o.Jobs
	if jobs == nil {
		jobs = []string{}
	}
	_, err := d.q.Exec(ctx, `
		INSERT INTO operators (id, name, letter, employee_id, phone, team, jobs)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			letter = EXCLUDED.letter,
			employee_id = EXCLUDED.employee_id,
			phone = EXCLUDED.phone,
			team = EXCLUDED.team,
			jobs = EXCLUDED.jobs
	`, o.ID, o.Name, o.Letter, o.EmployeeID, o.Phone, o.Team, jobs)
	if err != nil {
		return fmt.Errorf("failed to upsert operator: %w", err)
	}
	return nil
}
