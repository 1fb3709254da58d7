package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
)

// TokenIssuer signs session tokens for verified accounts.
type TokenIssuer interface {
	Issue(s auth.Subject) (string, time.Time, error)
}

type Service struct {
	tx       db.TxRunner
	accounts AccountRepository
	patients PatientRepository
	doctors  DoctorRepository
	hasher   *auth.PasswordHasher
	issuer   TokenIssuer
	status   auth.StatusInvalidator
	logger   zerolog.Logger
}

func NewService(tx db.TxRunner, accounts AccountRepository, patients PatientRepository, doctors DoctorRepository,
	hasher *auth.PasswordHasher, issuer TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		tx:       tx,
		accounts: accounts,
		patients: patients,
		doctors:  doctors,
		hasher:   hasher,
		issuer:   issuer,
		logger:   logger,
	}
}

// WithStatusInvalidator makes (de)activation drop cached account status.
func (s *Service) WithStatusInvalidator(inv auth.StatusInvalidator) *Service {
	s.status = inv
	return s
}

func (s *Service) hash(password string) (string, error) {
	h, err := s.hasher.Hash(password)
	if err != nil {
		return "", apperr.Internal("hash password", err)
	}
	return h, nil
}

// Register creates a patient and its account in one transaction. Duplicate
// usernames or emails surface as conflicts from the unique constraints, so
// of two concurrent registrations for one username exactly one succeeds.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*PatientAccount, error) {
	username := strings.TrimSpace(req.Username)
	if err := validateCredentials(username, req.Password); err != nil {
		return nil, err
	}
	patient, err := req.PersonalInfo.normalize()
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	patient.Active = true
	account := &Account{Username: username, PasswordHash: hash, Role: auth.RolePatient, Active: true}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Create(ctx, patient); err != nil {
			return err
		}
		account.PatientID = &patient.ID
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", account.ID.String()).Str("patient_id", patient.ID.String()).Msg("patient registered")
	return &PatientAccount{Account: account, Patient: patient}, nil
}

// CreateDoctorAccount creates a doctor and its account. An unknown specialty
// is rejected by the foreign key as a validation error.
func (s *Service) CreateDoctorAccount(ctx context.Context, req CreateDoctorRequest) (*DoctorAccount, error) {
	username := strings.TrimSpace(req.Username)
	if err := validateCredentials(username, req.Password); err != nil {
		return nil, err
	}
	doctor := &Doctor{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		SpecialtyID: req.SpecialtyID,
		Active:      true,
	}
	if err := validateName(doctor.FirstName, doctor.LastName); err != nil {
		return nil, err
	}
	if doctor.SpecialtyID == uuid.Nil {
		return nil, apperr.Validation("specialty_id is required")
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &Account{Username: username, PasswordHash: hash, Role: auth.RoleDoctor, Active: true}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.doctors.Create(ctx, doctor); err != nil {
			return err
		}
		account.DoctorID = &doctor.ID
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", account.ID.String()).Str("doctor_id", doctor.ID.String()).Msg("doctor account created")
	return &DoctorAccount{Account: account, Doctor: doctor}, nil
}

// CreateAdmin bootstraps an administrator account.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	account := &Account{Username: username, PasswordHash: hash, Role: auth.RoleAdmin, Active: true}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Info().Str("account_id", account.ID.String()).Msg("admin account created")
	return account, nil
}

// VerifyCredential returns the account for a matching username and password.
// Unknown users, wrong passwords and inactive accounts all fail the same way.
func (s *Service) VerifyCredential(ctx context.Context, username, password string) (*Account, error) {
	invalid := apperr.Unauthenticated("invalid credentials")
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	account, err := s.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if apperr.Is(err, apperr.KindNotFound) {
		s.hasher.Compare("", password)
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Compare(account.PasswordHash, password) {
		return nil, invalid
	}
	if !account.Active {
		return nil, invalid
	}
	return account, nil
}

// Login verifies the credential and issues a session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.VerifyCredential(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.issuer.Issue(account.Subject())
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &LoginResponse{Token: token, Role: account.Role, ExpiresAt: exp}, nil
}

// SetPatientActive (de)activates a patient and the linked account together.
// Repeating the call with the same value is a no-op.
func (s *Service) SetPatientActive(ctx context.Context, patientID uuid.UUID, active bool) (*Patient, error) {
	var patient *Patient
	var accountID uuid.UUID
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if patient, err = s.patients.SetActive(ctx, patientID, active); err != nil {
			return err
		}
		accountID, err = s.accounts.SetActiveByPatient(ctx, patientID, active)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, accountID)
	s.logger.Info().Str("patient_id", patientID.String()).Bool("active", active).Msg("patient status changed")
	return patient, nil
}

// SetDoctorActive (de)activates a doctor and the linked account together. The
// doctor row is locked first so a booking in flight either completes before
// the change or sees the doctor inactive.
func (s *Service) SetDoctorActive(ctx context.Context, doctorID uuid.UUID, active bool) (*Doctor, error) {
	var doctor *Doctor
	var accountID uuid.UUID
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.doctors.LockDoctor(ctx, doctorID); err != nil {
			return err
		}
		var err error
		if doctor, err = s.doctors.SetActive(ctx, doctorID, active); err != nil {
			return err
		}
		accountID, err = s.accounts.SetActiveByDoctor(ctx, doctorID, active)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, accountID)
	s.logger.Info().Str("doctor_id", doctorID.String()).Bool("active", active).Msg("doctor status changed")
	return doctor, nil
}

func (s *Service) invalidate(ctx context.Context, accountID uuid.UUID) {
	if s.status == nil {
		return
	}
	if err := s.status.Invalidate(ctx, accountID); err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID.String()).Msg("account status cache invalidation failed")
	}
}

func (s *Service) GetPatientProfile(ctx context.Context, patientID uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, patientID)
}

// UpdatePatientProfile replaces the patient's personal details.
func (s *Service) UpdatePatientProfile(ctx context.Context, patientID uuid.UUID, info PersonalInfo) (*Patient, error) {
	patient, err := info.normalize()
	if err != nil {
		return nil, err
	}
	patient.ID = patientID
	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// IsActive reports whether an account may still authenticate.
func (s *Service) IsActive(ctx context.Context, accountID uuid.UUID) (bool, error) {
	active, err := s.accounts.IsActive(ctx, accountID)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	return active, err
}
