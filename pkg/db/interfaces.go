package db

import (
	"context"
	"errors"
	"time"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

// ErrNotFound is returned by lookups of a single record that does not exist
var ErrNotFound = errors.New("record not found")

// ShiftReader defines the read operations the validation engine needs
type ShiftReader interface {
	// GetOperatorShifts returns the operator's shifts overlapping [from, to).
	// A nil published filter returns both published and draft shifts.
	GetOperatorShifts(ctx context.Context, operatorID string, from, to time.Time, published *bool) ([]model.Shift, error)

	// GetOverlappingJobShifts returns every operator's shifts for job overlapping [start, end)
	GetOverlappingJobShifts(ctx context.Context, job string, start, end time.Time) ([]model.Shift, error)
}

// ShiftStore defines the interface for shift database operations
type ShiftStore interface {
	ShiftReader
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	InsertShift(ctx context.Context, shift *model.Shift) error
	UpdateShift(ctx context.Context, shift *model.Shift) error
	DeleteShift(ctx context.Context, id string) error
	// PublishShifts marks the given shifts as published and returns how many changed
	PublishShifts(ctx context.Context, ids []string) (int, error)
}

// PolicyStore defines the interface for fatigue policy operations.
// GetPolicy returns ErrNotFound when no policy has been set.
type PolicyStore interface {
	GetPolicy(ctx context.Context) (*model.PolicyConfig, error)
	SavePolicy(ctx context.Context, policy model.PolicyConfig) error
}

// OperatorStore defines the interface for operator operations
type OperatorStore interface {
	GetOperator(ctx context.Context, id string) (*model.Operator, error)
	ListOperators(ctx context.Context) ([]model.Operator, error)
	UpsertOperator(ctx context.Context, operator *model.Operator) error
}

// JobLocker is implemented by stores whose operator lock does not already serialise writers
// across operators. LockJob holds job exclusively until the surrounding transaction ends; it
// is always taken after the operator lock.
type JobLocker interface {
	LockJob(ctx context.Context, job string) error
}

// Database defines the interface for all database operations.
// Both postgres.DB and sqlite.Store implement this interface.
type Database interface {
	ShiftStore
	PolicyStore
	OperatorStore

	// WithOperatorLock runs fn in a single transaction holding an exclusive lock on the
	// operator, so that concurrent validate-then-persist sequences for the same operator
	// are serialised. The Database passed to fn is bound to that transaction; fn must use
	// it instead of the outer one. The transaction commits when fn returns nil.
	WithOperatorLock(ctx context.Context, operatorID string, fn func(ctx context.Context, tx Database) error) error
}
