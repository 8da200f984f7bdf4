// Package providers builds the application services over the booted
// infrastructure (database, cache, storage).
package providers

import (
	"fmt"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/lookup"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// Services is everything controllers and CLI commands need.
type Services struct {
	Repo     *repositories.Repository
	Disk     storage.Disk
	Secrets  *services.SiteSecretsResolver
	Lookup   *lookup.Aggregator
	Images   *services.ImageImporter
	Importer *services.ProductBarcodeImportService
	Catalog  *services.CatalogService
	Orders   *services.CheckoutOrderCreator
	Payment  *services.StripeCheckoutService
	Settings *services.SettingsService
	Auth     *services.AuthService
	Receipts *services.OrderReceiptMailer
}

// Boot loads config, connects the database, cache and storage disks and
// wires the services. A Redis outage is not fatal: the cache falls back
// to memory.
func Boot() (*Services, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return nil, err
	}
	if err := cache.Connect(); err != nil {
		logger.Warn("cache: using memory driver", "error", err)
	}
	storage.Connect()

	disk, err := storage.Default()
	if err != nil {
		return nil, err
	}
	svc := New(repositories.New(orm.DB()), disk)
	if mail.Configured() {
		svc.Receipts.Listen()
	}
	return svc, nil
}

// New wires the services over an existing repository and disk.
func New(repo *repositories.Repository, disk storage.Disk) *Services {
	secrets := services.NewSiteSecretsResolver(repo.Settings)
	agg := lookup.NewAggregator(config.BarcodeLookupProvider(),
		lookup.NewUpcitemdb(secrets),
		lookup.NewWikidata(),
	)
	images := services.NewImageImporter(disk, config.ImageMaxBytes())

	return &Services{
		Repo:     repo,
		Disk:     disk,
		Secrets:  secrets,
		Lookup:   agg,
		Images:   images,
		Importer: services.NewProductBarcodeImportService(repo, agg, images),
		Catalog:  services.NewCatalogService(repo.Products),
		Orders:   services.NewCheckoutOrderCreator(repo),
		Payment:  services.NewStripeCheckoutService(repo, services.NewStripeGateway(secrets), secrets),
		Settings: services.NewSettingsService(repo.Settings, secrets),
		Auth:     services.NewAuthService(repo.Users),
		Receipts: services.NewOrderReceiptMailer(repo.Users),
	}
}
