package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
)

func TestHasRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := rbac.HasRole("admin")(ok)

	serve := func(c *auth.Claims) int {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
		if c != nil {
			r = r.WithContext(middleware.WithClaims(r.Context(), c))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&auth.Claims{UserID: 2, Role: "user"}))
	assert.Equal(t, http.StatusNoContent, serve(&auth.Claims{UserID: 1, Role: "admin"}))
}
