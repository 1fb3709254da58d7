package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Subject is a verified account as handed to the issuer.
type Subject struct {
	AccountID uuid.UUID
	Role      Role
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// Claims is the payload carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	Role      Role       `json:"role"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
}

// Validate is called by the jwt parser after the registered claims check.
// Each role must carry exactly the link it needs.
func (c *Claims) Validate() error {
	if _, err := uuid.Parse(c.Subject); err != nil {
		return fmt.Errorf("subject is not an account id")
	}
	switch c.Role {
	case RolePatient:
		if c.PatientID == nil || c.DoctorID != nil {
			return errors.New("patient claims must carry only a patient id")
		}
	case RoleDoctor:
		if c.DoctorID == nil || c.PatientID != nil {
			return errors.New("doctor claims must carry only a doctor id")
		}
	case RoleAdmin:
		if c.PatientID != nil || c.DoctorID != nil {
			return errors.New("admin claims must not carry a person link")
		}
	default:
		return fmt.Errorf("unknown role %d", uint8(c.Role))
	}
	return nil
}

// AccountID returns the account id from the subject claim.
func (c *Claims) AccountID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

// Issuer signs and verifies HS256 session tokens. Tokens are stateless; see
// Authenticate for the per-request account status check.
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(key []byte, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{key: key, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for s that expires after the configured TTL.
func (i *Issuer) Issue(s Subject) (string, time.Time, error) {
	if !s.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: invalid role %d", uint8(s.Role))
	}
	now := i.now()
	exp := now.Add(i.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   s.AccountID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:      s.Role,
		PatientID: s.PatientID,
		DoctorID:  s.DoctorID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm, issuer, expiry and role links.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthenticated("token expired")
		}
		return nil, apperr.Unauthenticated("invalid token")
	}
	return claims, nil
}
