package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Weekday is an ISO-8601 day of the week: 1 is Monday, 7 is Sunday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return "invalid weekday"
}

// WeekdayOf returns the ISO weekday of t's wall clock.
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// Schedule is a doctor's weekly availability.
type Schedule struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Weekdays []Weekday `json:"weekdays"`
}

type ReplaceRequest struct {
	Weekdays []int `json:"weekdays"`
}

// normalizeWeekdays validates, de-duplicates and sorts days.
func normalizeWeekdays(days []int) ([]Weekday, error) {
	seen := make(map[Weekday]bool, len(days))
	out := make([]Weekday, 0, len(days))
	for _, d := range days {
		wd := Weekday(d)
		if !wd.Valid() {
			return nil, apperr.Validation("weekday %d is out of range, expected 1 (Monday) to 7 (Sunday)", d)
		}
		if seen[wd] {
			continue
		}
		seen[wd] = true
		out = append(out, wd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
