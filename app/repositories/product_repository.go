package repositories

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository handles products, their variants and images.
type ProductRepository struct {
	db *orm.Query
}

func NewProductRepository(db *orm.Query) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) withRelations(ctx context.Context) *orm.Query {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") })
}

func (r *ProductRepository) first(q *orm.Query) (*models.Product, error) {
	var p models.Product
	err := q.First(&p)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID returns the product with variants and images, or nil.
func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	return r.first(r.withRelations(ctx).Where("products.id = ?", id))
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.first(r.withRelations(ctx).Where("slug = ?", slug))
}

func (r *ProductRepository) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return r.first(r.withRelations(ctx).Where("barcode = ?", barcode))
}

func (r *ProductRepository) FindByExternal(ctx context.Context, source, externalID string) (*models.Product, error) {
	return r.first(r.withRelations(ctx).Where("external_source = ? AND external_id = ?", source, externalID))
}

// SlugTaken also counts soft-deleted rows since they still hold the index.
func (r *ProductRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	return r.db.WithContext(ctx).Unscoped().Model(&models.Product{}).Where("slug = ?", slug).Exists()
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p)
}

// Save updates the product columns only; associations are written
// explicitly through AddImages.
func (r *ProductRepository) Save(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p)
}

func (r *ProductRepository) AddImages(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images)
}

// List pages through the catalogue. search matches name, brand or barcode.
func (r *ProductRepository) List(ctx context.Context, search string, page, limit int) ([]models.Product, orm.Pagination, error) {
	q := r.withRelations(ctx)
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR barcode = ?", like, like, s)
	}

	var products []models.Product
	pagination, err := q.Order("id desc").GetWithPagination(&products, page, limit)
	return products, pagination, err
}

// LockProduct re-reads a product row FOR UPDATE. Returns nil when absent.
func (r *ProductRepository) LockProduct(ctx context.Context, id uint) (*models.Product, error) {
	return r.first(r.db.WithContext(ctx).Model(&models.Product{}).ForUpdate().Where("id = ?", id))
}

// LockVariant re-reads a variant row FOR UPDATE. Returns nil when absent.
func (r *ProductRepository) LockVariant(ctx context.Context, id uint) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := r.db.WithContext(ctx).Model(&models.ProductVariant{}).ForUpdate().Where("id = ?", id).First(&v)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ProductRepository) SetProductStock(ctx context.Context, id uint, stock int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"stock": stock})
}

func (r *ProductRepository) SetVariantStock(ctx context.Context, id uint, stock int) error {
	return r.db.WithContext(ctx).Model(&models.ProductVariant{}).Where("id = ?", id).
		Updates(map[string]interface{}{"stock": stock})
}
