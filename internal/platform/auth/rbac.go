package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole admits callers whose role is one of roles. It must run after
// Authenticate. There is no implicit superuser: an Admin is only admitted
// where RoleAdmin is listed.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c.Request().Context())
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "role '"+claims.Role.String()+"' is not authorized")
		}
	}
}
