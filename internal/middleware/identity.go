package middleware

import "github.com/labstack/echo/v4"

// Roles carried in the JWT role claim.
const (
	RoleOwner  = "OWNER"
	RoleEditor = "EDITOR"
	RoleViewer = "VIEWER"
)

// ClientID returns the collaboration client id set by JWTAuth, or "" for
// unauthenticated requests.
func ClientID(c echo.Context) string {
	s, _ := c.Get(clientIDKey).(string)
	return s
}

// Role returns the upper-cased role claim, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(roleKey).(string)
	return s
}

// CanEdit reports whether the caller may mutate plans.
func CanEdit(c echo.Context) bool {
	r := Role(c)
	return r == RoleOwner || r == RoleEditor
}

// rateSubject identifies the caller for rate limiting.
func rateSubject(c echo.Context) string {
	if id := ClientID(c); id != "" {
		return id
	}
	return "anon"
}
