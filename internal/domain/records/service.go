package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Service struct {
	records  Repository
	patients Patients
	logger   zerolog.Logger
}

func NewService(records Repository, patients Patients, logger zerolog.Logger) *Service {
	return &Service{records: records, patients: patients, logger: logger}
}

// Append stores a new record authored by doctorID, who must have an
// appointment with the patient. Records are never edited or removed
// afterwards.
func (s *Service) Append(ctx context.Context, doctorID uuid.UUID, req AppendRequest) (*MedicalRecord, error) {
	rec, err := req.toRecord(doctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.patients.PatientActive(ctx, rec.PatientID); err != nil {
		return nil, err
	}
	if err := s.requireAppointment(ctx, doctorID, rec.PatientID); err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("record_id", rec.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("patient_id", rec.PatientID.String()).
		Msg("medical record appended")
	return rec, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]MedicalRecord, error) {
	out, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []MedicalRecord{}
	}
	return out, nil
}

// ListForDoctor returns a patient's records to a doctor with an appointment
// for that patient.
func (s *Service) ListForDoctor(ctx context.Context, doctorID, patientID uuid.UUID) ([]MedicalRecord, error) {
	if err := s.requireAppointment(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	return s.ListForPatient(ctx, patientID)
}

func (s *Service) requireAppointment(ctx context.Context, doctorID, patientID uuid.UUID) error {
	ok, err := s.records.HasAppointment(ctx, doctorID, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("no appointment links this doctor to the patient")
	}
	return nil
}
