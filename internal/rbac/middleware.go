package rbac

import (
	"errors"
	"net/http"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/utils"
)

// Middleware resolves the authenticated user into a Principal. It must run
// after auth.Middleware.
func Middleware(resolver *Resolver, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := auth.UserID(r.Context())
			if userID == "" {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}

			p, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				if errors.Is(err, utils.ErrForbidden) {
					log.LogSecurity("PRINCIPAL_REJECTED", userID+": "+err.Error())
				} else {
					log.Error("RBAC", "resolve "+userID+": "+err.Error())
				}
				utils.WriteError(w, "Access denied", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequirePermission rejects requests whose principal lacks perm.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Require(FromContext(r.Context()), perm); err != nil {
				utils.WriteError(w, "Access denied", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
