package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Handler builds the http.Handler: the global middleware stack, /metrics,
// static directories and then every route callback.
func (a *Application) Handler() http.Handler {
	r := router.New()

	// Outermost first. Metrics wraps everything so panics and rate-limited
	// requests are still counted; the request id exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(config.AppEnv() == "production"))
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(
		int(config.GetInt64("RATE_LIMIT_PER_MINUTE", 200)),
		time.Minute,
		config.GetBool("TRUST_PROXY", false),
	))
	r.Use(a.middlewares...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.Handle("/metrics", "metrics", metrics.Handler())

	for prefix, dir := range a.static {
		prefix = "/" + strings.Trim(prefix, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
		r.Handle(prefix+"/*", "static"+strings.ReplaceAll(prefix, "/", "."), fs)
	}

	for _, fn := range a.routesFns {
		fn(r)
	}

	return r.Handler()
}
