package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type pair struct{ doctor, patient uuid.UUID }

type mockRecordRepo struct {
	mu           sync.Mutex
	records      []MedicalRecord
	appointments map[pair]bool
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{appointments: make(map[pair]bool)}
}

func (m *mockRecordRepo) Create(_ context.Context, r *MedicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.records = append(m.records, *r)
	return nil
}

func (m *mockRecordRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]MedicalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MedicalRecord
	for _, r := range m.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	return out, nil
}

func (m *mockRecordRepo) HasAppointment(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointments[pair{doctorID, patientID}], nil
}

type mockPatients struct {
	active map[uuid.UUID]bool
}

func (m *mockPatients) PatientActive(_ context.Context, id uuid.UUID) (bool, error) {
	active, ok := m.active[id]
	if !ok {
		return false, apperr.NotFound("patient not found")
	}
	return active, nil
}

type testEnv struct {
	svc      *Service
	repo     *mockRecordRepo
	patients *mockPatients
}

func newTestEnv() *testEnv {
	repo := newMockRecordRepo()
	patients := &mockPatients{active: make(map[uuid.UUID]bool)}
	return &testEnv{svc: NewService(repo, patients, zerolog.Nop()), repo: repo, patients: patients}
}

func (e *testEnv) addPatient(active bool) uuid.UUID {
	id := uuid.New()
	e.patients.active[id] = active
	return id
}

// book records an appointment between the doctor and the patient.
func (e *testEnv) book(doctorID, patientID uuid.UUID) {
	e.repo.mu.Lock()
	defer e.repo.mu.Unlock()
	e.repo.appointments[pair{doctorID, patientID}] = true
}
