// Package app assembles the HTTP application: global middleware, the
// /metrics endpoint and the route callbacks registered by the caller.
//
//	handler := app.New().
//	    Use(middleware.Maintenance(state, "/api/admin")).
//	    Routes(func(r *router.Router) { routes.RegisterAPI(r, svc) }).
//	    Handler()
//
//	app.New().Routes(...).Serve(ctx, ":8080")
package app

import (
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Application collects route callbacks and extra middleware. Build one
// with New, then call Handler or Serve.
type Application struct {
	routesFns   []func(*router.Router)
	middlewares []router.Middleware
	static      map[string]string
}

func New() *Application {
	return &Application{static: map[string]string{}}
}

// Routes registers a route callback. Callbacks run in order when the
// handler is built.
func (a *Application) Routes(fn func(*router.Router)) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// Use appends middleware that runs after the built-in stack.
func (a *Application) Use(mw ...router.Middleware) *Application {
	a.middlewares = append(a.middlewares, mw...)
	return a
}

// Static serves files under dir at prefix (e.g. uploaded product images).
func (a *Application) Static(prefix, dir string) *Application {
	a.static[prefix] = dir
	return a
}

// Router builds a router with every callback applied but no middleware.
// The route:list command uses it.
func (a *Application) Router() *router.Router {
	r := router.New()
	for _, fn := range a.routesFns {
		fn(r)
	}
	return r
}
