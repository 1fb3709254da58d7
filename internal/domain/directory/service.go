package directory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/pkg/pagination"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	out, err := s.repo.ListSpecialties(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Specialty{}
	}
	return out, nil
}

// CreateSpecialty adds a specialty. Names are unique; a duplicate is a
// conflict.
func (s *Service) CreateSpecialty(ctx context.Context, req CreateSpecialtyRequest) (*Specialty, error) {
	name, err := req.normalize()
	if err != nil {
		return nil, err
	}
	sp := &Specialty{Name: name}
	if err := s.repo.CreateSpecialty(ctx, sp); err != nil {
		return nil, err
	}
	s.logger.Info().Str("specialty_id", sp.ID.String()).Msg("specialty created")
	return sp, nil
}

// ActiveDoctors is the directory patients pick a doctor from. Inactive
// doctors are never listed here whatever the filter says.
func (s *Service) ActiveDoctors(ctx context.Context, f DoctorFilter) (*pagination.Response, error) {
	active := true
	f.Active = &active
	return s.Doctors(ctx, f)
}

func (s *Service) Doctors(ctx context.Context, f DoctorFilter) (*pagination.Response, error) {
	out, total, err := s.repo.ListDoctors(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []DoctorEntry{}
	}
	return pagination.NewResponse(out, total, f.Page), nil
}

func (s *Service) Patients(ctx context.Context, f PatientFilter) (*pagination.Response, error) {
	out, total, err := s.repo.ListPatients(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []PatientEntry{}
	}
	return pagination.NewResponse(out, total, f.Page), nil
}

// Dashboard reads the admin counters for the current local day and month.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	return s.repo.Counts(ctx, windowAt(s.now()))
}
