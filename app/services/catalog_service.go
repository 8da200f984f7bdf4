package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/orm"
)

const catalogCacheTTL = time.Minute

// CatalogPage is one cached page of the product listing.
type CatalogPage struct {
	Products   []models.Product `json:"products"`
	Pagination orm.Pagination   `json:"pagination"`
}

// CatalogService serves the public catalogue.
type CatalogService struct {
	products *repositories.ProductRepository
}

func NewCatalogService(products *repositories.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// List pages through products. Pages are cached for a minute, so stock
// shown here may lag; checkout always re-reads it.
func (s *CatalogService) List(ctx context.Context, search string, page, limit int) (CatalogPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	search = strings.TrimSpace(search)

	key := fmt.Sprintf("catalog:list:%d:%d:%s", page, limit, strings.ToLower(search))
	var cached CatalogPage
	if cache.GetCtx(ctx, key, &cached) {
		return cached, nil
	}

	products, pagination, err := s.products.List(ctx, search, page, limit)
	if err != nil {
		return CatalogPage{}, err
	}
	out := CatalogPage{Products: products, Pagination: pagination}
	_ = cache.SetCtx(ctx, key, out, catalogCacheTTL)
	return out, nil
}

// Show returns the product with that slug, or nil.
func (s *CatalogService) Show(ctx context.Context, slug string) (*models.Product, error) {
	return s.products.FindBySlug(ctx, strings.TrimSpace(slug))
}
