package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

func createTestToken(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := newTestIssuer()
	did := uuid.New()
	s := Subject{AccountID: uuid.New(), Role: RoleDoctor, DoctorID: &did}

	token, exp, err := iss.Issue(s)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %s is not in the future", exp)
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AccountID() != s.AccountID || claims.Role != RoleDoctor || *claims.DoctorID != did {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.PatientID != nil {
		t.Error("doctor token must not carry a patient id")
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestIssuer_Expired(t *testing.T) {
	iss := newTestIssuer()
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := iss.Issue(patientSubject())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = newTestIssuer().Verify(token)
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("expected expiry message, got %v", err)
	}
}

func TestIssuer_WrongKey(t *testing.T) {
	other := NewIssuer([]byte("a-different-secret-key-of-some-length"), "clinic-test", time.Hour)
	token, _, _ := other.Issue(patientSubject())
	if _, err := newTestIssuer().Verify(token); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestIssuer_WrongIssuer(t *testing.T) {
	other := NewIssuer(testSigningKey, "someone-else", time.Hour)
	token, _, _ := other.Issue(patientSubject())
	if _, err := newTestIssuer().Verify(token); err == nil {
		t.Fatal("expected foreign issuer to be rejected")
	}
}

func TestIssuer_RejectsOtherAlgorithms(t *testing.T) {
	pid := uuid.New()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "clinic-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role:      RolePatient,
		PatientID: &pid,
	}
	token := createTestToken(t, jwt.SigningMethodHS512, claims, testSigningKey)
	if _, err := newTestIssuer().Verify(token); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}

func TestIssuer_RequiresExpiry(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), Issuer: "clinic-test"},
		Role:             RoleAdmin,
	}
	token := createTestToken(t, jwt.SigningMethodHS256, claims, testSigningKey)
	if _, err := newTestIssuer().Verify(token); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}

func TestIssuer_RoleLinks(t *testing.T) {
	pid := uuid.New()
	did := uuid.New()
	tests := []struct {
		name      string
		role      Role
		patientID *uuid.UUID
		doctorID  *uuid.UUID
		wantErr   bool
	}{
		{"patient with patient id", RolePatient, &pid, nil, false},
		{"patient without link", RolePatient, nil, nil, true},
		{"patient with doctor id", RolePatient, nil, &did, true},
		{"doctor with both", RoleDoctor, &pid, &did, true},
		{"admin with link", RoleAdmin, &pid, nil, true},
		{"admin without link", RoleAdmin, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   uuid.NewString(),
					Issuer:    "clinic-test",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
				Role:      tt.role,
				PatientID: tt.patientID,
				DoctorID:  tt.doctorID,
			}
			token := createTestToken(t, jwt.SigningMethodHS256, claims, testSigningKey)
			_, err := newTestIssuer().Verify(token)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIssuer_IssueRejectsInvalidRole(t *testing.T) {
	if _, _, err := newTestIssuer().Issue(Subject{AccountID: uuid.New()}); err == nil {
		t.Fatal("expected error issuing token without role")
	}
}
