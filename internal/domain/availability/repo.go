package availability

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// List returns the doctor's weekdays in ascending order.
	List(ctx context.Context, doctorID uuid.UUID) ([]Weekday, error)
	// Replace deletes every rule for the doctor and inserts days. Callers run
	// it inside a transaction.
	Replace(ctx context.Context, doctorID uuid.UUID, days []Weekday) error
	Has(ctx context.Context, doctorID uuid.UUID, day Weekday) (bool, error)
}

// Doctors is the slice of the identity store this package needs.
type Doctors interface {
	LockDoctor(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorActive(ctx context.Context, id uuid.UUID) (bool, error)
}
