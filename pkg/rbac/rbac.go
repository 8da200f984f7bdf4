// Package rbac guards route groups by the role carried in the bearer token.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// HasRole lets through only callers whose role is one of roles. It must be
// mounted after middleware.AuthMiddleware.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			if !allowed[role] {
				uid, _ := middleware.UserIDFromCtx(r)
				logger.WithCtx(r.Context()).Warn("rbac: forbidden", "user_id", uid, "role", role, "path", r.URL.Path)
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
