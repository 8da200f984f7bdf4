package repositories

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
)

// SettingsRepository reads and writes the single site settings row.
type SettingsRepository struct {
	db *orm.Query
}

func NewSettingsRepository(db *orm.Query) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, or nil when none was saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*models.SiteSettings, error) {
	var s models.SiteSettings
	err := r.db.WithContext(ctx).Model(&models.SiteSettings{}).Where("id = ?", models.SiteSettingsID).First(&s)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save inserts or updates the row; its id is always SiteSettingsID.
func (r *SettingsRepository) Save(ctx context.Context, s *models.SiteSettings) error {
	s.ID = models.SiteSettingsID
	return r.db.WithContext(ctx).Save(s)
}
