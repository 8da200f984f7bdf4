package services

import (
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
)

// VariantResolution is the price and stock a cart line is charged against.
type VariantResolution struct {
	Variant   *models.ProductVariant
	UnitPrice int64
	Available int
	InStock   bool
	Label     string
}

// ProductVariantResolver matches a requested variant against a product.
type ProductVariantResolver struct{}

func NewProductVariantResolver() *ProductVariantResolver { return &ProductVariantResolver{} }

// Resolve picks the variant to charge:
//   - variantID set: the product's variant with that id; an id that belongs
//     to no variant of this product means "no variant" (product defaults)
//   - variantID nil: the variant whose size matches selectedSize, else the
//     first variant
//
// Variant price and stock win over the product's; a variant price of 0
// inherits the product price.
func (ProductVariantResolver) Resolve(p *models.Product, variantID *uint, selectedSize string) VariantResolution {
	var v *models.ProductVariant
	if variantID != nil {
		v = findVariant(p.Variants, *variantID)
	} else if len(p.Variants) > 0 {
		v = findVariantBySize(p.Variants, selectedSize)
		if v == nil {
			v = &p.Variants[0]
		}
	}

	res := VariantResolution{
		Variant:   v,
		UnitPrice: p.Price,
		Available: p.Stock,
		Label:     p.Name,
	}
	if v != nil {
		if v.Price > 0 {
			res.UnitPrice = v.Price
		}
		res.Available = v.Stock
		if suffix := variantLabel(v); suffix != "" {
			res.Label = p.Name + " (" + suffix + ")"
		}
	}
	if res.Available < 0 {
		res.Available = 0
	}
	res.InStock = res.Available > 0
	return res
}

func findVariant(variants []models.ProductVariant, id uint) *models.ProductVariant {
	for i := range variants {
		if variants[i].ID == id {
			return &variants[i]
		}
	}
	return nil
}

func findVariantBySize(variants []models.ProductVariant, size string) *models.ProductVariant {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil
	}
	for i := range variants {
		if strings.EqualFold(variants[i].Size, size) {
			return &variants[i]
		}
	}
	return nil
}

func variantLabel(v *models.ProductVariant) string {
	if n := strings.TrimSpace(v.Name); n != "" {
		return n
	}
	return strings.TrimSpace(v.Size)
}
