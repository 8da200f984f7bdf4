package migrations

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260301000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260301000001_create_catalog_tables", &CreateCatalogTables{})
	migration.Register("20260301000002_create_orders_tables", &CreateOrdersTables{})
	migration.Register("20260301000003_create_site_settings_table", &CreateSiteSettingsTable{})
}

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.User{})
}

type CreateCatalogTables struct{}

func (m *CreateCatalogTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{}, &models.ProductVariant{}, &models.ProductImage{})
}

func (m *CreateCatalogTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.ProductImage{}, &models.ProductVariant{}, &models.Product{})
}

type CreateOrdersTables struct{}

func (m *CreateOrdersTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.OrderDetail{})
}

func (m *CreateOrdersTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.OrderDetail{}, &models.Order{})
}

type CreateSiteSettingsTable struct{}

func (m *CreateSiteSettingsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.SiteSettings{})
}

func (m *CreateSiteSettingsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.SiteSettings{})
}
