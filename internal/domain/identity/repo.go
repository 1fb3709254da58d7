package identity

import (
	"context"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByUsername(ctx context.Context, username string) (*Account, error)
	// SetActiveByPatient and SetActiveByDoctor update the account linked to a
	// person record and return its id.
	SetActiveByPatient(ctx context.Context, patientID uuid.UUID, active bool) (uuid.UUID, error)
	SetActiveByDoctor(ctx context.Context, doctorID uuid.UUID, active bool) (uuid.UUID, error)
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Patient, error)
	// PatientActive reports the active flag; unknown ids are NotFound.
	PatientActive(ctx context.Context, id uuid.UUID) (bool, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Doctor, error)
	// LockDoctor takes a row lock on the doctor for the rest of the
	// transaction and reports the active flag. Unknown ids are NotFound.
	LockDoctor(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorActive(ctx context.Context, id uuid.UUID) (bool, error)
}
