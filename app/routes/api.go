package routes

import (
	"github.com/shashiranjanraj/storefront/app/controllers"
	appgraphql "github.com/shashiranjanraj/storefront/app/graphql"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// MaintenanceBypass lists the path prefixes that keep working while the
// site is in maintenance mode.
var MaintenanceBypass = []string{"/api/admin", "/api/webhooks", "/api/login"}

func RegisterAPI(r *router.Router, s *providers.Services) {
	authController := controllers.NewAuthController(s.Auth)
	catalogController := controllers.NewCatalogController(s.Catalog, s.Disk)
	checkoutController := controllers.NewCheckoutController(s.Repo, s.Orders, s.Payment)
	webhookController := controllers.NewWebhookController(s.Payment)
	adminController := controllers.NewAdminController(s.Importer, s.Lookup, s.Settings, s.Disk)

	api := r.Group("/api")
	api.Post("/login", "auth.login", authController.Login)

	api.Get("/products", "catalog.index", catalogController.Index)
	api.Get("/products/{slug}", "catalog.show", catalogController.Show)

	if schema, err := appgraphql.NewCatalogSchema(s.Catalog, s.Disk); err != nil {
		logger.Error("graphql: catalog schema disabled", "error", err)
	} else {
		api.Post("/graphql", "catalog.graphql", graphql.Handler(schema))
	}

	api.Get("/checkout/success", "checkout.success", checkoutController.Success)
	api.Post("/webhooks/stripe", "webhooks.stripe", webhookController.Stripe)

	protected := api.Group("", middleware.AuthMiddleware)
	protected.Post("/checkout", "checkout.create", checkoutController.Create)
	protected.Get("/orders", "orders.index", checkoutController.Orders)
	protected.Get("/orders/reference/{reference}", "orders.show", checkoutController.Show)
	protected.Post("/orders/{id}/pay", "orders.pay", checkoutController.Pay)

	admin := api.Group("/admin", middleware.AuthMiddleware, rbac.HasRole(models.RoleAdmin))
	admin.Post("/products/import", "admin.products.import", adminController.Import)
	admin.Get("/lookup/search", "admin.lookup.search", adminController.Search)
	admin.Get("/settings", "admin.settings.show", adminController.ShowSettings)
	admin.Put("/settings", "admin.settings.update", adminController.UpdateSettings)
}
