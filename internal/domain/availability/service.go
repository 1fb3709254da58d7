package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type Service struct {
	tx      db.TxRunner
	rules   Repository
	doctors Doctors
	logger  zerolog.Logger
}

func NewService(tx db.TxRunner, rules Repository, doctors Doctors, logger zerolog.Logger) *Service {
	return &Service{tx: tx, rules: rules, doctors: doctors, logger: logger}
}

// Get returns the doctor's weekdays. Unknown doctors are NotFound.
func (s *Service) Get(ctx context.Context, doctorID uuid.UUID) (*Schedule, error) {
	if _, err := s.doctors.DoctorActive(ctx, doctorID); err != nil {
		return nil, err
	}
	days, err := s.rules.List(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []Weekday{}
	}
	return &Schedule{DoctorID: doctorID, Weekdays: days}, nil
}

// Replace swaps the doctor's whole weekday set for days. The doctor row is
// locked for the duration so a concurrent booking sees either the old set or
// the new one. An empty set is allowed and leaves the doctor unbookable.
func (s *Service) Replace(ctx context.Context, doctorID uuid.UUID, days []int) (*Schedule, error) {
	weekdays, err := normalizeWeekdays(days)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		active, err := s.doctors.LockDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		if !active {
			return apperr.Conflict("doctor is inactive")
		}
		return s.rules.Replace(ctx, doctorID, weekdays)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("doctor_id", doctorID.String()).Ints("weekdays", days).Msg("availability replaced")
	return &Schedule{DoctorID: doctorID, Weekdays: weekdays}, nil
}

// HasWeekday reports whether the doctor has a rule for day. Inside a
// transaction it reads through that transaction.
func (s *Service) HasWeekday(ctx context.Context, doctorID uuid.UUID, day Weekday) (bool, error) {
	if !day.Valid() {
		return false, nil
	}
	return s.rules.Has(ctx, doctorID, day)
}
