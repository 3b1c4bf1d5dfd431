package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/pkg/logger"
)

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RequireRole lets the request through when the authenticated user holds
// one of roles. It must run after the auth middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				writeAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
				return
			}

			if !user.HasRole(roles...) {
				logger.From(r.Context()).Warn("access denied: missing role",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				writeAppError(w, internal.ErrUnauthorizedAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(auth.RoleAdmin)(next)
}
