package scheduling

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/availability"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db/dbtest"
)

// -- Mock Repositories --

type mockAppointmentRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[uuid.UUID]Appointment)}
}

func (m *mockAppointmentRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]Appointment, len(m.appts))
	for k, v := range m.appts {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.appts = saved
		m.mu.Unlock()
	}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.appts {
		if existing.Status == StatusScheduled && existing.DoctorID == a.DoctorID && existing.AppointmentTime.Equal(a.AppointmentTime) {
			return apperr.Conflict("time slot is already booked")
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = *a
	return nil
}

func (m *mockAppointmentRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if !dbtest.InTx(ctx) {
		return nil, apperr.Internal("lock appointment", errors.New("row lock taken outside a transaction"))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	return &a, nil
}

func (m *mockAppointmentRepo) ExistsScheduled(_ context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.Status == StatusScheduled && a.DoctorID == doctorID && a.AppointmentTime.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (*Appointment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != StatusScheduled {
		return nil, false, nil
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	return &a, true, nil
}

func (m *mockAppointmentRepo) list(match func(Appointment) bool, ascending bool) []AppointmentView {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AppointmentView
	for _, a := range m.appts {
		if match(a) {
			out = append(out, AppointmentView{Appointment: a})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].AppointmentTime.Before(out[j].AppointmentTime)
		}
		return out[i].AppointmentTime.After(out[j].AppointmentTime)
	})
	return out
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]AppointmentView, error) {
	return m.list(func(a Appointment) bool { return a.PatientID == patientID }, false), nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, status Status, ascending bool) ([]AppointmentView, error) {
	return m.list(func(a Appointment) bool { return a.DoctorID == doctorID && a.Status == status }, ascending), nil
}

func (m *mockAppointmentRepo) scheduledFor(doctorID uuid.UUID, at time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.appts {
		if a.Status == StatusScheduled && a.DoctorID == doctorID && a.AppointmentTime.Equal(at) {
			n++
		}
	}
	return n
}

type mockPeople struct {
	mu       sync.Mutex
	doctors  map[uuid.UUID]bool
	patients map[uuid.UUID]bool
	weekdays map[uuid.UUID]map[availability.Weekday]bool
}

func newMockPeople() *mockPeople {
	return &mockPeople{
		doctors:  make(map[uuid.UUID]bool),
		patients: make(map[uuid.UUID]bool),
		weekdays: make(map[uuid.UUID]map[availability.Weekday]bool),
	}
}

func (m *mockPeople) addDoctor(active bool, days ...availability.Weekday) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.doctors[id] = active
	set := make(map[availability.Weekday]bool)
	for _, d := range days {
		set[d] = true
	}
	m.weekdays[id] = set
	return id
}

func (m *mockPeople) addPatient(active bool) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.patients[id] = active
	return id
}

func (m *mockPeople) LockDoctor(ctx context.Context, id uuid.UUID) (bool, error) {
	if !dbtest.InTx(ctx) {
		return false, apperr.Internal("lock doctor", errors.New("row lock taken outside a transaction"))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	active, ok := m.doctors[id]
	if !ok {
		return false, apperr.NotFound("doctor not found")
	}
	return active, nil
}

func (m *mockPeople) PatientActive(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active, ok := m.patients[id]
	if !ok {
		return false, apperr.NotFound("patient not found")
	}
	return active, nil
}

func (m *mockPeople) HasWeekday(_ context.Context, doctorID uuid.UUID, day availability.Weekday) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.weekdays[doctorID][day], nil
}

// -- Test Fixtures --

type testEnv struct {
	svc    *Service
	tx     *dbtest.SerialTx
	appts  *mockAppointmentRepo
	people *mockPeople
}

func newTestEnv() *testEnv {
	appts := newMockAppointmentRepo()
	people := newMockPeople()
	tx := dbtest.NewSerialTx(appts)
	return &testEnv{
		svc:    NewService(tx, appts, people, people, people, zerolog.Nop()),
		tx:     tx,
		appts:  appts,
		people: people,
	}
}

// 2024-06-03 is a Monday.
const (
	mondayTen  = "2024-06-03T10:00:00"
	tuesdayTen = "2024-06-04T10:00:00"
)
