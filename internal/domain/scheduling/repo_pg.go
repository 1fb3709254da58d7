package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

var appointmentConstraints = db.ConstraintMessages{
	"appointments_scheduled_slot_key": "time slot is already booked",
	"appointments_status_check":       "unknown appointment status",
	"appointments_patient_id_fkey":    "unknown patient",
	"appointments_doctor_id_fkey":     "unknown doctor",
}

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, patient_id, doctor_id, appointment_time, status, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	if err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentTime, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.AppointmentTime = a.AppointmentTime.UTC()
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentTime, string(a.Status),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Translate(err, "insert appointment", appointmentConstraints)
}

func (r *appointmentRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, db.Translate(err, "appointment")
	}
	return a, nil
}

func (r *appointmentRepoPG) ExistsScheduled(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_time = $2 AND status = 'Scheduled'
		)`, doctorID, at).Scan(&exists)
	return exists, db.Translate(err, "check appointment slot")
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, bool, error) {
	a, err := scanAppt(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'Scheduled'
		RETURNING `+apptCols, id, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, db.Translate(err, "update appointment status", appointmentConstraints)
	}
	return a, true, nil
}

const viewSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.appointment_time, a.status, a.created_at, a.updated_at,
		p.first_name || ' ' || p.last_name,
		d.first_name || ' ' || d.last_name,
		s.name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN specialties s ON s.id = d.specialty_id`

func (r *appointmentRepoPG) collectViews(ctx context.Context, sql string, args ...interface{}) ([]AppointmentView, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.Translate(err, "list appointments")
	}
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppointmentView, error) {
		var v AppointmentView
		var status string
		err := row.Scan(&v.ID, &v.PatientID, &v.DoctorID, &v.AppointmentTime, &status, &v.CreatedAt, &v.UpdatedAt,
			&v.PatientName, &v.DoctorName, &v.Specialty)
		v.Status = Status(status)
		v.AppointmentTime = v.AppointmentTime.UTC()
		return v, err
	})
	if err != nil {
		return nil, db.Translate(err, "list appointments")
	}
	return views, nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentView, error) {
	return r.collectViews(ctx, viewSelect+`
	WHERE a.patient_id = $1
	ORDER BY a.appointment_time DESC, a.created_at DESC`, patientID)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status Status, ascending bool) ([]AppointmentView, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	return r.collectViews(ctx, viewSelect+`
	WHERE a.doctor_id = $1 AND a.status = $2
	ORDER BY a.appointment_time `+order, doctorID, string(status))
}
