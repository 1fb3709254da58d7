package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier turns a raw token into claims.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Authenticate requires a "Bearer <token>" Authorization header carrying a
// valid token. When status is non-nil the account must also still be active,
// so deactivation takes effect before the token expires.
func Authenticate(verifier TokenVerifier, status AccountStatusChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || scheme != "Bearer" || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, `invalid authorization format, use "Bearer <token>"`)
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			if status != nil {
				active, err := status.IsActive(ctx, claims.AccountID())
				if err != nil {
					return err
				}
				if !active {
					return apperr.Unauthenticated("account is inactive")
				}
			}

			c.Set("claims", claims)
			c.SetRequest(c.Request().WithContext(WithClaims(ctx, claims)))
			return next(c)
		}
	}
}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the caller's claims, or nil for anonymous calls.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// PatientID returns the caller's linked patient id. Callers without one get
// a forbidden error.
func PatientID(ctx context.Context) (uuid.UUID, error) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, apperr.Unauthenticated("authentication required")
	}
	if claims.Role != RolePatient || claims.PatientID == nil {
		return uuid.Nil, apperr.Forbidden("caller is not a patient")
	}
	return *claims.PatientID, nil
}

// DoctorID returns the caller's linked doctor id. Callers without one get a
// forbidden error.
func DoctorID(ctx context.Context) (uuid.UUID, error) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, apperr.Unauthenticated("authentication required")
	}
	if claims.Role != RoleDoctor || claims.DoctorID == nil {
		return uuid.Nil, apperr.Forbidden("caller is not a doctor")
	}
	return *claims.DoctorID, nil
}
