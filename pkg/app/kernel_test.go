package app_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

func TestHandler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products", "a.txt"), []byte("img"), 0o644))

	h := app.New().
		Static("/uploads", dir).
		Routes(func(r *router.Router) {
			r.Get("/api/ping", "ping", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("pong"))
			})
			r.Get("/api/boom", "boom", func(http.ResponseWriter, *http.Request) {
				panic("boom")
			})
		}).
		Handler()

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := serve("/api/ping")
	assert.Equal(t, "pong", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(reqid.Header))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusInternalServerError, serve("/api/boom").Code)
	assert.Equal(t, "img", serve("/uploads/products/a.txt").Body.String())

	rec = serve("/api/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"message":"Not found"}`, rec.Body.String())

	rec = serve("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="GET",path="/api/ping",status="200"}`)
}

func TestRouter_ListsRoutesWithoutMiddleware(t *testing.T) {
	a := app.New().Routes(func(r *router.Router) {
		r.Get("/api/products", "catalog.index", func(http.ResponseWriter, *http.Request) {})
	})

	routes := a.Router().Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "catalog.index", routes[0].Name)
}
