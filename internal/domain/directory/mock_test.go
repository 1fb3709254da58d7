package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type mockRepo struct {
	mu          sync.Mutex
	specialties []Specialty
	doctors     []DoctorEntry
	patients    []PatientEntry
	window      DashboardWindow
	counts      Dashboard
}

func (m *mockRepo) ListSpecialties(_ context.Context) ([]Specialty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]Specialty(nil), m.specialties...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) CreateSpecialty(_ context.Context, s *Specialty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.specialties {
		if existing.Name == s.Name {
			return apperr.Conflict("specialty already exists")
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.specialties = append(m.specialties, *s)
	return nil
}

func (m *mockRepo) ListDoctors(_ context.Context, f DoctorFilter) ([]DoctorEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var match []DoctorEntry
	for _, d := range m.doctors {
		if f.Active != nil && d.Active != *f.Active {
			continue
		}
		if f.SpecialtyID != nil && d.SpecialtyID != *f.SpecialtyID {
			continue
		}
		if q := strings.ToLower(f.Search); q != "" &&
			!strings.Contains(strings.ToLower(d.FirstName+" "+d.LastName+" "+d.Specialty), q) {
			continue
		}
		match = append(match, d)
	}
	start, end := f.Page.Window(len(match))
	return match[start:end], len(match), nil
}

func (m *mockRepo) ListPatients(_ context.Context, f PatientFilter) ([]PatientEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var match []PatientEntry
	for _, p := range m.patients {
		if f.Active != nil && p.Active != *f.Active {
			continue
		}
		match = append(match, p)
	}
	start, end := f.Page.Window(len(match))
	return match[start:end], len(match), nil
}

func (m *mockRepo) Counts(_ context.Context, w DashboardWindow) (*Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = w
	out := m.counts
	return &out, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := &mockRepo{}
	return NewService(repo, zerolog.Nop()), repo
}
