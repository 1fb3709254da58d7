package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

var recordConstraints = db.ConstraintMessages{
	"medical_records_patient_id_fkey": "unknown patient",
	"medical_records_doctor_id_fkey":  "unknown doctor",
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medical_records (id, patient_id, doctor_id, visit_date, diagnosis, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.VisitDate, rec.Diagnosis, rec.Notes,
	).Scan(&rec.CreatedAt)
	return db.Translate(err, "insert medical record", recordConstraints)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]MedicalRecord, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT m.id, m.patient_id, m.doctor_id, d.first_name || ' ' || d.last_name,
			m.visit_date, m.diagnosis, m.notes, m.created_at
		FROM medical_records m
		JOIN doctors d ON d.id = m.doctor_id
		WHERE m.patient_id = $1
		ORDER BY m.visit_date DESC, m.created_at DESC`, patientID)
	if err != nil {
		return nil, db.Translate(err, "list medical records")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (MedicalRecord, error) {
		var m MedicalRecord
		err := row.Scan(&m.ID, &m.PatientID, &m.DoctorID, &m.DoctorName,
			&m.VisitDate, &m.Diagnosis, &m.Notes, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, db.Translate(err, "list medical records")
	}
	return out, nil
}

func (r *repoPG) HasAppointment(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE doctor_id = $1 AND patient_id = $2)`,
		doctorID, patientID).Scan(&ok)
	return ok, db.Translate(err, "check doctor appointment")
}
