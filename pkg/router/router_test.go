package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/router"
)

func TestGroup_NamedRoutesAndParams(t *testing.T) {
	r := router.New()

	var seen []string
	tag := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				seen = append(seen, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	api := r.Group("/api", tag("api"))
	orders := api.Group("orders/", tag("orders"))
	orders.Post("/{id}/pay", "orders.pay", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(router.Param(req, "id")))
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders/42/pay", nil))

	assert.Equal(t, "42", rec.Body.String())
	assert.Equal(t, []string{"api", "orders"}, seen)

	url, err := r.URL("orders.pay", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/7/pay", url)

	_, err = r.URL("orders.pay", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutes_SortedTable(t *testing.T) {
	r := router.New()
	noop := func(http.ResponseWriter, *http.Request) {}

	r.Post("/b", "b.store", noop)
	r.Get("/b", "b.index", noop)
	r.Get("/a", "a.index", noop)
	r.Handle("/metrics", "metrics", http.HandlerFunc(noop))

	assert.Equal(t, []router.Route{
		{Method: "GET", Path: "/a", Name: "a.index"},
		{Method: "GET", Path: "/b", Name: "b.index"},
		{Method: "POST", Path: "/b", Name: "b.store"},
		{Method: "*", Path: "/metrics", Name: "metrics"},
	}, r.Routes())
}
