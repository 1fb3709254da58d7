package availability

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db/dbtest"
)

type mockRuleRepo struct {
	mu    sync.Mutex
	rules map[uuid.UUID]map[Weekday]bool
	err   error
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{rules: make(map[uuid.UUID]map[Weekday]bool)}
}

func (m *mockRuleRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]map[Weekday]bool, len(m.rules))
	for id, days := range m.rules {
		cp := make(map[Weekday]bool, len(days))
		for d := range days {
			cp[d] = true
		}
		saved[id] = cp
	}
	return func() {
		m.mu.Lock()
		m.rules = saved
		m.mu.Unlock()
	}
}

func (m *mockRuleRepo) List(_ context.Context, doctorID uuid.UUID) ([]Weekday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Weekday
	for d := range m.rules[doctorID] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *mockRuleRepo) Replace(_ context.Context, doctorID uuid.UUID, days []Weekday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, doctorID)
	set := make(map[Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	m.rules[doctorID] = set
	if m.err != nil {
		return m.err
	}
	return nil
}

func (m *mockRuleRepo) Has(_ context.Context, doctorID uuid.UUID, day Weekday) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rules[doctorID][day], nil
}

type mockDoctors struct {
	mu     sync.Mutex
	active map[uuid.UUID]bool
}

func newMockDoctors() *mockDoctors {
	return &mockDoctors{active: make(map[uuid.UUID]bool)}
}

func (m *mockDoctors) add(active bool) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.active[id] = active
	return id
}

func (m *mockDoctors) LockDoctor(ctx context.Context, id uuid.UUID) (bool, error) {
	if !dbtest.InTx(ctx) {
		return false, apperr.Internal("lock doctor", errors.New("row lock taken outside a transaction"))
	}
	return m.DoctorActive(ctx, id)
}

func (m *mockDoctors) DoctorActive(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active, ok := m.active[id]
	if !ok {
		return false, apperr.NotFound("doctor not found")
	}
	return active, nil
}

type testEnv struct {
	svc     *Service
	tx      *dbtest.SerialTx
	rules   *mockRuleRepo
	doctors *mockDoctors
}

func newTestEnv() *testEnv {
	rules := newMockRuleRepo()
	doctors := newMockDoctors()
	tx := dbtest.NewSerialTx(rules)
	return &testEnv{
		svc:     NewService(tx, rules, doctors, zerolog.Nop()),
		tx:      tx,
		rules:   rules,
		doctors: doctors,
	}
}
