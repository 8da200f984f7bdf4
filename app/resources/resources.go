// Package resources holds the API shapes of the storefront models.
package resources

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/resource"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// Product returns a transformer that resolves image paths to public URLs
// on disk. A nil disk leaves paths as they are.
func Product(disk storage.Disk) resource.Transformer[models.Product] {
	return func(p models.Product) resource.Map {
		images := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			if disk != nil {
				images = append(images, disk.URL(img.Path))
			} else {
				images = append(images, img.Path)
			}
		}

		m := resource.Map{
			"id":          p.ID,
			"name":        p.Name,
			"slug":        p.Slug,
			"description": p.Description,
			"price":       p.Price,
			"stock":       p.Stock,
			"in_stock":    p.Stock > 0,
			"brand":       p.Brand,
			"color":       p.Color,
			"images":      images,
			"variants":    resource.Many(p.Variants, variant(p.Price)),
		}
		resource.When(m, p.Barcode != nil, "barcode", p.BarcodeValue())
		return m
	}
}

func variant(productPrice int64) resource.Transformer[models.ProductVariant] {
	return func(v models.ProductVariant) resource.Map {
		price := v.Price
		if price <= 0 {
			price = productPrice
		}
		return resource.Map{
			"id":       v.ID,
			"name":     v.Name,
			"size":     v.Size,
			"price":    price,
			"in_stock": v.Stock > 0,
		}
	}
}

// Order is the customer-facing order shape.
func Order(o models.Order) resource.Map {
	m := resource.Map{
		"id":               o.ID,
		"reference":        o.Reference,
		"status":           o.Status,
		"payment_provider": o.PaymentProvider,
		"payment_status":   o.PaymentStatus,
		"total":            o.Total,
		"lines":            resource.Many(o.Details, orderLine),
		"created_at":       o.CreatedAt,
	}
	resource.When(m, o.PaidAt != nil, "paid_at", o.PaidAt)
	return m
}

func orderLine(d models.OrderDetail) resource.Map {
	return resource.Map{
		"product_id":    d.ProductID,
		"variant_id":    d.VariantID,
		"product_name":  d.ProductName,
		"selected_size": d.SelectedSize,
		"quantity":      d.Quantity,
		"unit_price":    d.UnitPrice,
		"line_total":    d.LineTotal(),
	}
}
