package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/availability"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type Service struct {
	tx           db.TxRunner
	appointments AppointmentRepository
	doctors      Doctors
	patients     Patients
	availability Availability
	logger       zerolog.Logger
}

func NewService(tx db.TxRunner, appts AppointmentRepository, doctors Doctors, patients Patients, avail Availability, logger zerolog.Logger) *Service {
	return &Service{
		tx:           tx,
		appointments: appts,
		doctors:      doctors,
		patients:     patients,
		availability: avail,
		logger:       logger,
	}
}

// Book creates a Scheduled appointment for patientID. The doctor row stays
// locked from the first check to the insert, so concurrent bookings for one
// doctor run one after another and exactly one of two identical requests
// succeeds. The partial unique index on Scheduled slots backs this up.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req BookRequest) (*Appointment, error) {
	if req.DoctorID == "" {
		return nil, apperr.Validation("doctor_id is required")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperr.Validation("doctor_id must be a uuid")
	}
	at, err := ParseAppointmentTime(req.AppointmentTime)
	if err != nil {
		return nil, err
	}

	var appt *Appointment
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		active, err := s.patients.PatientActive(ctx, patientID)
		if err != nil {
			return err
		}
		if !active {
			return apperr.Forbidden("patient account is inactive")
		}

		active, err = s.doctors.LockDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		if !active {
			return apperr.Conflict("doctor is not accepting appointments")
		}

		day := availability.WeekdayOf(at)
		ok, err := s.availability.HasWeekday(ctx, doctorID, day)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("doctor is not available on %s", day)
		}

		taken, err := s.appointments.ExistsScheduled(ctx, doctorID, at)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("time slot is already booked")
		}

		appt = &Appointment{
			PatientID:       patientID,
			DoctorID:        doctorID,
			AppointmentTime: at,
			Status:          StatusScheduled,
		}
		return s.appointments.Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("patient_id", patientID.String()).
		Msg("appointment booked")
	return appt, nil
}

// Cancel cancels the patient's own Scheduled appointment.
func (s *Service) Cancel(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, func(a *Appointment) error {
		if a.PatientID != patientID {
			return apperr.Forbidden("appointment belongs to another patient")
		}
		if a.Status.Terminal() {
			return apperr.Forbidden("appointment is already %s", a.Status)
		}
		return nil
	})
}

// AdminCancel cancels any Scheduled appointment regardless of owner.
func (s *Service) AdminCancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, func(a *Appointment) error {
		if a.Status.Terminal() {
			return apperr.Conflict("appointment is already %s", a.Status)
		}
		return nil
	})
}

// Complete marks the doctor's own Scheduled appointment as Completed.
func (s *Service) Complete(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, func(a *Appointment) error {
		if a.DoctorID != doctorID {
			return apperr.Forbidden("appointment belongs to another doctor")
		}
		if a.Status.Terminal() {
			return apperr.Forbidden("appointment is already %s", a.Status)
		}
		return nil
	})
}

// transition locks the appointment, runs allow against the locked row and
// then applies a conditional update that only touches Scheduled rows.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, allow func(*Appointment) error) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := allow(a); err != nil {
			return err
		}
		updated, ok, err := s.appointments.UpdateStatus(ctx, id, to)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("appointment is no longer scheduled")
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("status", string(to)).
		Msg("appointment status changed")
	return out, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentView, error) {
	views, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return nonNil(views), nil
}

// DoctorSchedule lists the doctor's upcoming Scheduled appointments in time
// order, or their Completed visits newest first.
func (s *Service) DoctorSchedule(ctx context.Context, doctorID uuid.UUID, view ScheduleView) ([]AppointmentView, error) {
	var (
		views []AppointmentView
		err   error
	)
	switch view {
	case ViewCompleted:
		views, err = s.appointments.ListByDoctor(ctx, doctorID, StatusCompleted, false)
	default:
		views, err = s.appointments.ListByDoctor(ctx, doctorID, StatusScheduled, true)
	}
	if err != nil {
		return nil, err
	}
	return nonNil(views), nil
}

func nonNil(v []AppointmentView) []AppointmentView {
	if v == nil {
		return []AppointmentView{}
	}
	return v
}
