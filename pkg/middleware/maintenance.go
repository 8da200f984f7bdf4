package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/storefront/pkg/response"
)

// MaintenanceFunc reports whether the site is in maintenance mode and the
// message to show.
type MaintenanceFunc func(ctx context.Context) (bool, string)

// Maintenance answers 503 while maintenance mode is on. Paths starting with
// any of the bypass prefixes (admin, webhooks, login) keep working.
func Maintenance(state MaintenanceFunc, bypass ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range bypass {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			on, msg := state(r.Context())
			if !on {
				next.ServeHTTP(w, r)
				return
			}
			if msg == "" {
				msg = "Service temporarily unavailable"
			}
			response.Unavailable(w, 300, msg)
		})
	}
}
