package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/availability"
)

type AppointmentRepository interface {
	// Create inserts a Scheduled appointment. A second Scheduled row for the
	// same doctor and time fails with a conflict.
	Create(ctx context.Context, a *Appointment) error
	// GetForUpdate reads the appointment and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ExistsScheduled(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error)
	// UpdateStatus moves a Scheduled appointment to status and reports
	// whether a row changed. Rows in a terminal state are left alone.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentView, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status Status, ascending bool) ([]AppointmentView, error)
}

// Doctors, Patients and Availability are the collaborators booking consults
// inside its transaction.
type Doctors interface {
	LockDoctor(ctx context.Context, id uuid.UUID) (bool, error)
}

type Patients interface {
	PatientActive(ctx context.Context, id uuid.UUID) (bool, error)
}

type Availability interface {
	HasWeekday(ctx context.Context, doctorID uuid.UUID, day availability.Weekday) (bool, error)
}
