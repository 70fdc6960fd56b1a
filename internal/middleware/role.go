package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects requests whose role, as stored by JWTAuth, is not
// one of roles with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// ReadOnlyFor lets the given roles through only for safe methods (GET,
// HEAD); any other method from them is refused with 403.  Other roles
// pass untouched.
func ReadOnlyFor(roles ...string) echo.MiddlewareFunc {
	ro := make(map[string]bool, len(roles))
	for _, r := range roles {
		ro[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ro[Role(c)] {
				switch c.Request().Method {
				case http.MethodGet, http.MethodHead:
				default:
					return c.JSON(http.StatusForbidden, echo.Map{"error": "read-only role"})
				}
			}
			return next(c)
		}
	}
}
