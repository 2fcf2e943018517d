package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opscheduler/shiftcheck/pkg/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB provides database operations using PostgreSQL
type DB struct {
	pool *pgxpool.Pool
	q    querier
	// tx is set on the DB handed to a WithOperatorLock callback
	tx pgx.Tx
}

var (
	_ db.Database  = (*DB)(nil)
	_ db.JobLocker = (*DB)(nil)
)

// NewDB creates a new PostgreSQL database connection
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, q: pool}, nil
}

// Close closes the database connection pool
func (d *DB) Close() {
	d.pool.Close()
}

// WithOperatorLock runs fn in a transaction holding a transaction-scoped advisory lock keyed
// on the operator. Other validate-then-persist sequences for the same operator block until
// the transaction ends; different operators proceed in parallel.
func (d *DB) WithOperatorLock(ctx context.Context, operatorID string, fn func(ctx context.Context, tx db.Database) error) error {
	if d.tx != nil {
		// Already inside a transaction: take the lock there
		if _, err := d.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, operatorID); err != nil {
			return fmt.Errorf("failed to lock operator %s: %w", operatorID, err)
		}
		return fn(ctx, d)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, operatorID); err != nil {
		return fmt.Errorf("failed to lock operator %s: %w", operatorID, err)
	}

	if err := fn(ctx, &DB{pool: d.pool, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LockJob takes a transaction-scoped advisory lock on an exclusive job, so two operators
// cannot both find the job free and book it. Outside WithOperatorLock there is no
// transaction to hold the lock and it is a no-op.
func (d *DB) LockJob(ctx context.Context, job string) error {
	if d.tx == nil {
		return nil
	}
	if _, err := d.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('job:' || $1))`, job); err != nil {
		return fmt.Errorf("failed to lock job %s: %w", job, err)
	}
	return nil
}

// RunMigrations executes all pending SQL migration files in order and returns the names of
// the ones it applied. Applied migrations are tracked in a schema_migrations table.
func (d *DB) RunMigrations(ctx context.Context) ([]string, error) {
	_, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration filename: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	pending, err := pendingMigrations(done)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, filename := range pending {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+filename)
		if err != nil {
			return ran, fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		err = pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", filename, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", filename, err)
			}
			return nil
		})
		if err != nil {
			return ran, err
		}
		ran = append(ran, filename)
	}

	return ran, nil
}

// pendingMigrations lists embedded .sql files not in done, sorted by name
func pendingMigrations(done map[string]bool) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var pending []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") || done[entry.Name()] {
			continue
		}
		pending = append(pending, entry.Name())
	}
	sort.Strings(pending)
	return pending, nil
}
