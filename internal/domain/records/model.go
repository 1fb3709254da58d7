package records

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/pkg/calendar"
)

const maxDiagnosisLen = 2000

// MedicalRecord is an append-only clinical note.
type MedicalRecord struct {
	ID         uuid.UUID     `json:"id"`
	PatientID  uuid.UUID     `json:"patient_id"`
	DoctorID   uuid.UUID     `json:"doctor_id"`
	DoctorName string        `json:"doctor_name,omitempty"`
	VisitDate  calendar.Date `json:"visit_date"`
	Diagnosis  string        `json:"diagnosis"`
	Notes      *string       `json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

type AppendRequest struct {
	PatientID string  `json:"patient_id"`
	VisitDate string  `json:"visit_date"`
	Diagnosis string  `json:"diagnosis"`
	Notes     *string `json:"notes"`
}

func (r AppendRequest) toRecord(doctorID uuid.UUID) (*MedicalRecord, error) {
	if r.PatientID == "" {
		return nil, apperr.Validation("patient_id is required")
	}
	patientID, err := uuid.Parse(r.PatientID)
	if err != nil {
		return nil, apperr.Validation("patient_id must be a uuid")
	}
	if strings.TrimSpace(r.VisitDate) == "" {
		return nil, apperr.Validation("visit_date is required")
	}
	visit, err := calendar.Parse(strings.TrimSpace(r.VisitDate))
	if err != nil {
		return nil, apperr.Validation("visit_date must be formatted as YYYY-MM-DD")
	}
	diagnosis := strings.TrimSpace(r.Diagnosis)
	if diagnosis == "" {
		return nil, apperr.Validation("diagnosis is required")
	}
	if len([]rune(diagnosis)) > maxDiagnosisLen {
		return nil, apperr.Validation("diagnosis must be at most %d characters", maxDiagnosisLen)
	}
	var notes *string
	if r.Notes != nil {
		if n := strings.TrimSpace(*r.Notes); n != "" {
			notes = &n
		}
	}
	return &MedicalRecord{
		PatientID: patientID,
		DoctorID:  doctorID,
		VisitDate: visit,
		Diagnosis: diagnosis,
		Notes:     notes,
	}, nil
}
