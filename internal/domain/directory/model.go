package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/pkg/calendar"
	"github.com/clinic/clinic/pkg/pagination"
)

const maxSpecialtyNameLen = 120

type Specialty struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateSpecialtyRequest struct {
	Name string `json:"name"`
}

func (r CreateSpecialtyRequest) normalize() (string, error) {
	name := strings.Join(strings.Fields(r.Name), " ")
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	if len([]rune(name)) > maxSpecialtyNameLen {
		return "", apperr.Validation("name must be at most %d characters", maxSpecialtyNameLen)
	}
	return name, nil
}

// DoctorEntry is one row of the doctor directory.
type DoctorEntry struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	SpecialtyID uuid.UUID `json:"specialty_id"`
	Specialty   string    `json:"specialty"`
	Active      bool      `json:"active"`
	Username    *string   `json:"username,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PatientEntry struct {
	ID        uuid.UUID      `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Phone     *string        `json:"phone,omitempty"`
	BirthDate *calendar.Date `json:"birth_date,omitempty"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
}

type DoctorFilter struct {
	Search      string
	SpecialtyID *uuid.UUID
	Active      *bool
	Page        pagination.Params
}

type PatientFilter struct {
	Search string
	Active *bool
	Page   pagination.Params
}

// Dashboard holds the admin counters. AppointmentsToday counts appointments
// on the clinic's current calendar day that are not cancelled.
type Dashboard struct {
	AppointmentsToday    int `json:"appointments_today"`
	NewPatientsThisMonth int `json:"new_patients_this_month"`
	TotalPatients        int `json:"total_patients"`
	ActiveDoctors        int `json:"active_doctors"`
}

// DashboardWindow bounds the dashboard's time-based counters. Day bounds are
// wall-clock values comparable with appointment times; MonthStart is an
// instant.
type DashboardWindow struct {
	DayStart   time.Time
	DayEnd     time.Time
	MonthStart time.Time
}

func windowAt(now time.Time) DashboardWindow {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return DashboardWindow{
		DayStart:   dayStart,
		DayEnd:     dayStart.AddDate(0, 0, 1),
		MonthStart: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
	}
}
