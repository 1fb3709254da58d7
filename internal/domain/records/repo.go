package records

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	// ListByPatient returns the patient's records, newest visit first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]MedicalRecord, error)
	// HasAppointment reports whether the doctor has an appointment with the
	// patient in any status.
	HasAppointment(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}

type Patients interface {
	PatientActive(ctx context.Context, id uuid.UUID) (bool, error)
}
