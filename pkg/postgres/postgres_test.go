package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

func TestPendingMigrations(t *testing.T) {
	pending, err := pendingMigrations(map[string]bool{})
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	assert.Equal(t, "001_init.sql", pending[0])

	pending, err = pendingMigrations(map[string]bool{"001_init.sql": true})
	require.NoError(t, err)
	assert.NotContains(t, pending, "001_init.sql")
	assert.Equal(t, "002_shift_sequence.sql", pending[0])
}

// openTestDB connects to TEST_DATABASE_URL and migrates it, skipping when unset
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	d, err := NewDB(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	_, err = d.RunMigrations(ctx)
	require.NoError(t, err)
	return d
}

func TestDB_ShiftRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	op := &model.Operator{ID: uuid.New().String(), Name: "Test Operator", Team: "A", Jobs: []string{"FCC Console"}}
	require.NoError(t, d.UpsertOperator(ctx, op))

	start := time.Date(2024, 8, 12, 9, 45, 0, 0, time.UTC)
	s := &model.Shift{
		ID:         uuid.New().String(),
		OperatorID: op.ID,
		Title:      "Day Shift",
		Start:      start,
		End:        start.Add(12 * time.Hour),
		Kind:       model.ShiftDay,
		Job:        "FCC Console",
	}
	require.NoError(t, d.InsertShift(ctx, s))

	got, err := d.GetOperatorShifts(ctx, op.ID, start.Add(-time.Hour), start.Add(time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, s.ID, got[0].ID)
	assert.True(t, s.Start.Equal(got[0].Start))
	assert.Equal(t, model.ShiftDay, got[0].Kind)

	// Touching windows do not overlap
	got, err = d.GetOperatorShifts(ctx, op.ID, s.End, s.End.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	published := true
	got, err = d.GetOperatorShifts(ctx, op.ID, start, s.End, &published)
	require.NoError(t, err)
	assert.Empty(t, got)

	holders, err := d.GetOverlappingJobShifts(ctx, "FCC Console", start.Add(time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, holders)

	n, err := d.PublishShifts(ctx, []string{s.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, d.DeleteShift(ctx, s.ID))
	_, err = d.GetShift(ctx, s.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDB_WithOperatorLockRollsBack(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	op := &model.Operator{ID: uuid.New().String(), Name: "Rollback Operator"}
	require.NoError(t, d.UpsertOperator(ctx, op))

	id := uuid.New().String()
	start := time.Date(2024, 9, 2, 9, 45, 0, 0, time.UTC)
	boom := errors.New("abort")
	err := d.WithOperatorLock(ctx, op.ID, func(ctx context.Context, tx db.Database) error {
		if err := tx.InsertShift(ctx, &model.Shift{
			ID: id, OperatorID: op.ID, Start: start, End: start.Add(12 * time.Hour), Kind: model.ShiftDay, Job: "Generated",
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = d.GetShift(ctx, id)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDB_PolicyRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	p := model.PolicyConfig{
		MaxConsecutiveShifts:      7,
		MinRestAfterMaxShifts:     48,
		MaxConsecutiveNightShifts: 4,
		MinRestAfterNightShifts:   48,
		MinRestAfter3Shifts:       36,
		ShiftLengthHours:          12,
		MaxHoursInDay:             12,
	}
	require.NoError(t, d.SavePolicy(ctx, p))

	got, err := d.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
}

func TestDB_EqualStartsKeepInsertionOrderWithinTransaction(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	op := &model.Operator{ID: uuid.New().String(), Name: "Ordering Operator"}
	require.NoError(t, d.UpsertOperator(ctx, op))

	start := time.Date(2024, 9, 16, 4, 45, 0, 0, time.UTC)
	var ids []string
	err := d.WithOperatorLock(ctx, op.ID, func(ctx context.Context, tx db.Database) error {
		for i := 0; i < 3; i++ {
			s := &model.Shift{
				ID:         uuid.New().String(),
				OperatorID: op.ID,
				Start:      start,
				End:        start.Add(time.Duration(i+1) * time.Hour),
				Kind:       model.ShiftDay,
				Job:        "Generated",
			}
			if err := tx.InsertShift(ctx, s); err != nil {
				return err
			}
			ids = append(ids, s.ID)
		}
		return nil
	})
	require.NoError(t, err)

	got, err := d.GetOperatorShifts(ctx, op.ID, start, start.Add(time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, ids[i], s.ID)
	}
}

func TestDB_LockJobSerialisesDifferentOperators(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	job := "Console " + uuid.New().String()
	start := time.Date(2024, 10, 7, 4, 45, 0, 0, time.UTC)
	end := start.Add(12 * time.Hour)

	var operators []string
	for i := 0; i < 2; i++ {
		op := &model.Operator{ID: uuid.New().String(), Name: "Job Lock Operator", Jobs: []string{job}}
		require.NoError(t, d.UpsertOperator(ctx, op))
		operators = append(operators, op.ID)
	}

	var booked atomic.Int32
	var wg sync.WaitGroup
	for _, opID := range operators {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.WithOperatorLock(ctx, opID, func(ctx context.Context, tx db.Database) error {
				if err := tx.(db.JobLocker).LockJob(ctx, job); err != nil {
					return err
				}
				holders, err := tx.GetOverlappingJobShifts(ctx, job, start, end)
				if err != nil || len(holders) > 0 {
					return err
				}
				// Leave room for the other transaction to read a stale snapshot
				time.Sleep(100 * time.Millisecond)
				booked.Add(1)
				return tx.InsertShift(ctx, &model.Shift{
					ID: uuid.New().String(), OperatorID: opID, Start: start, End: end, Kind: model.ShiftDay, Job: job,
				})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), booked.Load())
	holders, err := d.GetOverlappingJobShifts(ctx, job, start, end)
	require.NoError(t, err)
	assert.Len(t, holders, 1)
}
