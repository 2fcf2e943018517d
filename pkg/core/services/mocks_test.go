package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

// mockStore is an in-memory db.Database. WithOperatorLock serialises every transaction
// and restores the shift table when fn fails.
type mockStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	shifts    []model.Shift
	policy    *model.PolicyConfig
	operators map[string]model.Operator

	policyErr error
	shiftsErr error
	jobErr    error
	insertErr error

	jobQueries int
	lockCalls  int
	// jobLocks records each LockJob call with the number of job queries made before it
	jobLocks []jobLock
}

type jobLock struct {
	job           string
	queriesBefore int
}

func newMockStore(policy *model.PolicyConfig, operators ...model.Operator) *mockStore {
	m := &mockStore{policy: policy, operators: make(map[string]model.Operator)}
	for _, op := range operators {
		m.operators[op.ID] = op
	}
	return m
}

func (m *mockStore) GetOperatorShifts(ctx context.Context, operatorID string, from, to time.Time, published *bool) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shiftsErr != nil {
		return nil, m.shiftsErr
	}
	var out []model.Shift
	for _, s := range m.shifts {
		if s.OperatorID != operatorID || !s.Overlaps(from, to) {
			continue
		}
		if published != nil && s.Published != *published {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStore) GetOverlappingJobShifts(ctx context.Context, job string, start, end time.Time) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobQueries++
	if m.jobErr != nil {
		return nil, m.jobErr
	}
	var out []model.Shift
	for _, s := range m.shifts {
		if s.Job == job && s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) LockJob(ctx context.Context, job string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobLocks = append(m.jobLocks, jobLock{job: job, queriesBefore: m.jobQueries})
	return nil
}

func (m *mockStore) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shifts {
		if s.ID == id {
			found := s
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) InsertShift(ctx context.Context, shift *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.shifts = append(m.shifts, *shift)
	return nil
}

func (m *mockStore) UpdateShift(ctx context.Context, shift *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.shifts {
		if s.ID == shift.ID {
			m.shifts[i] = *shift
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockStore) DeleteShift(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.shifts {
		if s.ID == id {
			m.shifts = slices.Delete(m.shifts, i, i+1)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockStore) PublishShifts(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i, s := range m.shifts {
		if slices.Contains(ids, s.ID) && !s.Published {
			m.shifts[i].Published = true
			n++
		}
	}
	return n, nil
}

func (m *mockStore) GetPolicy(ctx context.Context) (*model.PolicyConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policyErr != nil {
		return nil, m.policyErr
	}
	if m.policy == nil {
		return nil, db.ErrNotFound
	}
	p := *m.policy
	return &p, nil
}

func (m *mockStore) SavePolicy(ctx context.Context, policy model.PolicyConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = &policy
	return nil
}

func (m *mockStore) GetOperator(ctx context.Context, id string) (*model.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operators[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &op, nil
}

func (m *mockStore) ListOperators(ctx context.Context) ([]model.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Operator, 0, len(m.operators))
	for _, op := range m.operators {
		out = append(out, op)
	}
	slices.SortFunc(out, func(a, b model.Operator) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *mockStore) UpsertOperator(ctx context.Context, operator *model.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operators[operator.ID] = *operator
	return nil
}

func (m *mockStore) WithOperatorLock(ctx context.Context, operatorID string, fn func(ctx context.Context, tx db.Database) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.lockCalls++
	snapshot := slices.Clone(m.shifts)
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.shifts = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockStore) allShifts() []model.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.shifts)
}

// base is a Monday Day shift start
var base = time.Date(2024, 8, 12, 4, 45, 0, 0, time.UTC)

func testPolicy() *model.PolicyConfig {
	return &model.PolicyConfig{
		MaxConsecutiveShifts:      7,
		MinRestAfterMaxShifts:     48,
		MaxConsecutiveNightShifts: 4,
		MinRestAfterNightShifts:   48,
		MinRestAfter3Shifts:       36,
		ShiftLengthHours:          12,
		MaxHoursInDay:             12,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		SQLitePath:      ":memory:",
		Timezone:        "UTC",
		DayShiftStart:   "04:45",
		NightShiftStart: "16:45",
		ExclusiveJobs:   config.DefaultExclusiveJobs,
		Teams:           config.DefaultTeams,
		GeneratedJob:    "Generated",
	}
}

func operator(id string, jobs ...string) model.Operator {
	return model.Operator{ID: id, Name: "Operator " + id, Team: "A", Jobs: jobs}
}

func shift(id, operatorID string, start time.Time, kind model.ShiftKind, job string) model.Shift {
	return model.Shift{
		ID:         id,
		OperatorID: operatorID,
		Start:      start,
		End:        start.Add(12 * time.Hour),
		Kind:       kind,
		Job:        job,
	}
}
