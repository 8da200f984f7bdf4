package seeders

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

func TestSeedCatalog_Idempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_catalog?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductVariant{}, &models.ProductImage{}))

	var out bytes.Buffer
	require.NoError(t, RunAll(db, &out))
	require.NoError(t, RunAll(db, &out))

	var products, variants int64
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.Model(&models.ProductVariant{}).Count(&variants).Error)
	assert.EqualValues(t, len(demoProducts), products)
	assert.EqualValues(t, 4, variants)
	assert.Contains(t, out.String(), "Seeding: demo_catalog")
}

func TestRun_UnknownSeeder(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_unknown?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	var out bytes.Buffer
	err = Run(db, &out, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
	assert.Empty(t, out.String())
}
