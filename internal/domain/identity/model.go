package identity

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/calendar"
)

// Account maps to the accounts table. Accounts are never deleted, only
// deactivated.
type Account struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         auth.Role  `db:"role" json:"role"`
	PatientID    *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Subject is the token subject for this account.
func (a *Account) Subject() auth.Subject {
	return auth.Subject{AccountID: a.ID, Role: a.Role, PatientID: a.PatientID, DoctorID: a.DoctorID}
}

// Patient maps to the patients table.
type Patient struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	FirstName string         `db:"first_name" json:"first_name"`
	LastName  string         `db:"last_name" json:"last_name"`
	Email     string         `db:"email" json:"email"`
	Phone     *string        `db:"phone" json:"phone,omitempty"`
	BirthDate *calendar.Date `db:"birth_date" json:"birth_date,omitempty"`
	Active    bool           `db:"active" json:"active"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	SpecialtyID uuid.UUID `db:"specialty_id" json:"specialty_id"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PersonalInfo is the patient data collected at registration and on
// profile updates.
type PersonalInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	PersonalInfo
}

type CreateDoctorRequest struct {
	Username    string    `json:"username"`
	Password    string    `json:"password"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	SpecialtyID uuid.UUID `json:"specialty_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Role      auth.Role `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PatientAccount is returned by Register.
type PatientAccount struct {
	Account *Account `json:"account"`
	Patient *Patient `json:"patient"`
}

// DoctorAccount is returned by CreateDoctorAccount.
type DoctorAccount struct {
	Account *Account `json:"account"`
	Doctor  *Doctor  `json:"doctor"`
}

const (
	maxUsernameLen = 80
	maxNameLen     = 100
	maxEmailLen    = 255
	maxPhoneLen    = 40
)

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return apperr.Validation("username and password are required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return apperr.Validation("username must be at most %d characters", maxUsernameLen)
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return apperr.Validation("username must not contain whitespace")
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperr.Validation("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

func validateName(first, last string) error {
	if first == "" || last == "" {
		return apperr.Validation("first name and last name are required")
	}
	if utf8.RuneCountInString(first) > maxNameLen || utf8.RuneCountInString(last) > maxNameLen {
		return apperr.Validation("names must be at most %d characters", maxNameLen)
	}
	return nil
}

// normalize trims input and builds the patient fields, rejecting missing or
// malformed values.
func (in PersonalInfo) normalize() (*Patient, error) {
	p := &Patient{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if err := validateName(p.FirstName, p.LastName); err != nil {
		return nil, err
	}
	if p.Email == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(p.Email) > maxEmailLen {
		return nil, apperr.Validation("email must be at most %d characters", maxEmailLen)
	}
	if addr, err := mail.ParseAddress(p.Email); err != nil || addr.Address != p.Email {
		return nil, apperr.Validation("email is not a valid address")
	}

	if phone := strings.TrimSpace(in.Phone); phone != "" {
		if len(phone) > maxPhoneLen {
			return nil, apperr.Validation("phone must be at most %d characters", maxPhoneLen)
		}
		p.Phone = &phone
	}

	if dob := strings.TrimSpace(in.BirthDate); dob != "" {
		d, err := calendar.Parse(dob)
		if err != nil {
			return nil, apperr.Validation("birth_date: %v", err)
		}
		if d.Time().After(time.Now()) {
			return nil, apperr.Validation("birth_date must not be in the future")
		}
		p.BirthDate = &d
	}
	return p, nil
}
