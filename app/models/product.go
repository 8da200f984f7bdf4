package models

import "gorm.io/gorm"

// Product represents a product in the catalogue.
//
// Barcode and the (ExternalSource, ExternalID) pair are alternate unique
// keys used by the barcode importer. Both are nullable so hand-made
// products never collide on empty strings.
type Product struct {
	gorm.Model
	Name           string  `gorm:"size:255;not null;index"                              json:"name"`
	Slug           string  `gorm:"size:255;not null;uniqueIndex"                        json:"slug"`
	Description    string  `gorm:"type:text"                                            json:"description"`
	Price          int64   `gorm:"not null;default:0"                                   json:"price"` // cents
	Stock          int     `gorm:"not null;default:0"                                   json:"stock"`
	Brand          string  `gorm:"size:255"                                             json:"brand"`
	Color          string  `gorm:"size:100"                                             json:"color"`
	Barcode        *string `gorm:"size:32;uniqueIndex"                                  json:"barcode,omitempty"`
	ExternalSource *string `gorm:"size:32;uniqueIndex:idx_products_external"            json:"external_source,omitempty"`
	ExternalID     *string `gorm:"size:64;uniqueIndex:idx_products_external"            json:"external_id,omitempty"`

	Variants []ProductVariant `gorm:"constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	Images   []ProductImage   `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// BarcodeValue returns the barcode or "" when unset.
func (p *Product) BarcodeValue() string {
	if p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}

// ProductVariant is a purchasable option of a product (size, colour...).
// When a product has variants their price and stock win over the product's.
type ProductVariant struct {
	gorm.Model
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"size:255"       json:"name"`
	Size      string `gorm:"size:50"        json:"size"`
	Price     int64  `gorm:"not null;default:0" json:"price"` // cents, 0 = inherit product price
	Stock     int    `gorm:"not null;default:0" json:"stock"`
}

// ProductImage is an image stored on the configured storage disk.
type ProductImage struct {
	gorm.Model
	ProductID uint   `gorm:"not null;index"         json:"product_id"`
	Path      string `gorm:"size:255;not null"      json:"path"`
	Position  int    `gorm:"not null;default:0"     json:"position"`
}
