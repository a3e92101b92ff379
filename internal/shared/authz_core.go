package shared

import "net/http"

// Built-in role names used by route guards and the seed fixtures.
const (
	RoleAdmin = "Admin"
	RoleBasic = "Basic"
)

// AnyRole lists every built-in role. Routes open to all signed-in callers use it.
func AnyRole() []string {
	return []string{RoleAdmin, RoleBasic}
}

// AdminOnly lists the roles allowed on administrative routes.
func AdminOnly() []string {
	return []string{RoleAdmin}
}

// RoleGuard builds middleware admitting callers holding any of roles.
type RoleGuard interface {
	RequireAny(roles ...string) func(http.Handler) http.Handler
}

// OpenGuard admits every request. Tests mount handlers behind it.
type OpenGuard struct{}

// RequireAny implements RoleGuard.
func (OpenGuard) RequireAny(...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}
