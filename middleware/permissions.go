package middleware

import (
	"net/http"
)

// Roles, weakest first.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var roleRank = map[string]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

func validRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// IsRoleAtLeast reports whether role grants at least required.
func IsRoleAtLeast(role, required string) bool {
	return roleRank[role] >= roleRank[required] && roleRank[role] > 0
}

// RequireRole is a middleware that ensures the user has at least the specified role
func RequireRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserIDFromContext(r) == "" {
				http.Error(w, "Unauthorized: No user ID found", http.StatusUnauthorized)
				return
			}

			if !IsRoleAtLeast(GetUserRoleFromContext(r), requiredRole) {
				http.Error(w, "Forbidden: Insufficient role privileges", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireWriteForMutations lets safe methods through and requires the
// editor role for everything else.
func RequireWriteForMutations(next http.Handler) http.Handler {
	guarded := RequireRole(RoleEditor)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			guarded.ServeHTTP(w, r)
		}
	})
}
