package scheduling

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Status is the appointment lifecycle state. Scheduled is the only state
// with outgoing transitions.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", apperr.Validation("unknown appointment status %q", s)
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentTime time.Time `json:"appointment_time"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AppointmentView is an appointment joined with the names a listing shows.
type AppointmentView struct {
	Appointment
	PatientName string `json:"patient_name"`
	DoctorName  string `json:"doctor_name"`
	Specialty   string `json:"specialty"`
}

type BookRequest struct {
	DoctorID        string `json:"doctor_id"`
	AppointmentTime string `json:"appointment_time"`
}

// ScheduleView selects a doctor's listing.
type ScheduleView string

const (
	ViewUpcoming  ScheduleView = "upcoming"
	ViewCompleted ScheduleView = "completed"
)

func ParseScheduleView(s string) (ScheduleView, error) {
	switch ScheduleView(strings.ToLower(s)) {
	case "", ViewUpcoming:
		return ViewUpcoming, nil
	case ViewCompleted:
		return ViewCompleted, nil
	}
	return "", apperr.Validation("view must be 'upcoming' or 'completed'")
}

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseAppointmentTime reads a booking timestamp and returns its wall clock
// as submitted, in UTC and truncated to the second. An RFC 3339 offset is
// dropped, not applied.
func ParseAppointmentTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.Validation("appointment_time is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return wallClock(t), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, apperr.Validation("appointment_time must be formatted as YYYY-MM-DDTHH:MM[:SS]")
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
