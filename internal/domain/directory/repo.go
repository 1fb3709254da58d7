package directory

import "context"

type Repository interface {
	ListSpecialties(ctx context.Context) ([]Specialty, error)
	CreateSpecialty(ctx context.Context, s *Specialty) error
	ListDoctors(ctx context.Context, f DoctorFilter) ([]DoctorEntry, int, error)
	ListPatients(ctx context.Context, f PatientFilter) ([]PatientEntry, int, error)
	Counts(ctx context.Context, w DashboardWindow) (*Dashboard, error)
}
