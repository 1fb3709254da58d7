package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db/dbtest"
)

// -- Mock Repositories --

type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[uuid.UUID]Account)}
}

func (m *mockAccountRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]Account, len(m.accounts))
	for k, v := range m.accounts {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.accounts = saved
		m.mu.Unlock()
	}
}

func (m *mockAccountRepo) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Username == a.Username {
			return apperr.Conflict("username is already taken")
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.accounts[a.ID] = *a
	return nil
}

func (m *mockAccountRepo) GetByUsername(_ context.Context, username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username {
			out := a
			return &out, nil
		}
	}
	return nil, apperr.NotFound("account not found")
}

func (m *mockAccountRepo) setActiveBy(match func(Account) bool, active bool) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.accounts {
		if match(a) {
			a.Active = active
			m.accounts[id] = a
			return id, nil
		}
	}
	return uuid.Nil, apperr.NotFound("account not found")
}

func (m *mockAccountRepo) SetActiveByPatient(_ context.Context, patientID uuid.UUID, active bool) (uuid.UUID, error) {
	return m.setActiveBy(func(a Account) bool { return a.PatientID != nil && *a.PatientID == patientID }, active)
}

func (m *mockAccountRepo) SetActiveByDoctor(_ context.Context, doctorID uuid.UUID, active bool) (uuid.UUID, error) {
	return m.setActiveBy(func(a Account) bool { return a.DoctorID != nil && *a.DoctorID == doctorID }, active)
}

func (m *mockAccountRepo) IsActive(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return false, apperr.NotFound("account not found")
	}
	return a.Active, nil
}

func (m *mockAccountRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

type mockPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]Patient)}
}

func (m *mockPatientRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]Patient, len(m.patients))
	for k, v := range m.patients {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.patients = saved
		m.mu.Unlock()
	}
}

func (m *mockPatientRepo) emailTaken(email string, except uuid.UUID) bool {
	for id, p := range m.patients {
		if p.Email == email && id != except {
			return true
		}
	}
	return false
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(p.Email, uuid.Nil) {
		return apperr.Conflict("email is already in use")
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.patients[p.ID] = *p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient not found")
	}
	return &p, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.patients[p.ID]
	if !ok {
		return apperr.NotFound("patient not found")
	}
	if m.emailTaken(p.Email, p.ID) {
		return apperr.Conflict("email is already in use")
	}
	p.Active = existing.Active
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = *p
	return nil
}

func (m *mockPatientRepo) SetActive(_ context.Context, id uuid.UUID, active bool) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient not found")
	}
	p.Active = active
	m.patients[id] = p
	return &p, nil
}

func (m *mockPatientRepo) PatientActive(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return false, apperr.NotFound("patient not found")
	}
	return p.Active, nil
}

func (m *mockPatientRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patients)
}

type mockDoctorRepo struct {
	mu          sync.Mutex
	doctors     map[uuid.UUID]Doctor
	specialties map[uuid.UUID]bool
	locks       int
}

func newMockDoctorRepo(specialties ...uuid.UUID) *mockDoctorRepo {
	m := &mockDoctorRepo{doctors: make(map[uuid.UUID]Doctor), specialties: make(map[uuid.UUID]bool)}
	for _, s := range specialties {
		m.specialties[s] = true
	}
	return m
}

func (m *mockDoctorRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]Doctor, len(m.doctors))
	for k, v := range m.doctors {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.doctors = saved
		m.mu.Unlock()
	}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.specialties[d.SpecialtyID] {
		return apperr.Validation("unknown specialty")
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.doctors[d.ID] = *d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFound("doctor not found")
	}
	return &d, nil
}

func (m *mockDoctorRepo) SetActive(_ context.Context, id uuid.UUID, active bool) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFound("doctor not found")
	}
	d.Active = active
	m.doctors[id] = d
	return &d, nil
}

func (m *mockDoctorRepo) LockDoctor(ctx context.Context, id uuid.UUID) (bool, error) {
	if !dbtest.InTx(ctx) {
		return false, apperr.Internal("lock doctor", errLockOutsideTx)
	}
	m.mu.Lock()
	m.locks++
	m.mu.Unlock()
	return m.DoctorActive(ctx, id)
}

func (m *mockDoctorRepo) DoctorActive(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return false, apperr.NotFound("doctor not found")
	}
	return d.Active, nil
}

type lockOutsideTxError struct{}

func (lockOutsideTxError) Error() string { return "row lock taken outside a transaction" }

var errLockOutsideTx = lockOutsideTxError{}

// -- Test Fixtures --

type fakeInvalidator struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (f *fakeInvalidator) Invalidate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

type testEnv struct {
	svc         *Service
	tx          *dbtest.SerialTx
	accounts    *mockAccountRepo
	patients    *mockPatientRepo
	doctors     *mockDoctorRepo
	issuer      *auth.Issuer
	invalidator *fakeInvalidator
	specialty   uuid.UUID
}

var testKey = []byte("identity-test-signing-key-0123456789")

func newTestEnv() *testEnv {
	specialty := uuid.New()
	accounts := newMockAccountRepo()
	patients := newMockPatientRepo()
	doctors := newMockDoctorRepo(specialty)
	tx := dbtest.NewSerialTx(accounts, patients, doctors)
	issuer := auth.NewIssuer(testKey, "clinic-test", 24*time.Hour)
	inv := &fakeInvalidator{}
	svc := NewService(tx, accounts, patients, doctors, auth.NewPasswordHasher(4), issuer, zerolog.Nop()).
		WithStatusInvalidator(inv)
	return &testEnv{
		svc: svc, tx: tx, accounts: accounts, patients: patients, doctors: doctors,
		issuer: issuer, invalidator: inv, specialty: specialty,
	}
}

func newTestService() *Service {
	return newTestEnv().svc
}
