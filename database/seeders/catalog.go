package seeders

import (
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

func init() {
	Register("demo_catalog", SeedCatalog)
}

func strPtr(s string) *string { return &s }

var demoProducts = []models.Product{
	{
		Name: "Classic Cotton Tee", Slug: "classic-cotton-tee", Brand: "Storefront", Color: "white",
		Description: "Heavyweight organic cotton t-shirt.", Price: 2500, Stock: 0,
		Variants: []models.ProductVariant{
			{Size: "S", Stock: 10},
			{Size: "M", Stock: 15},
			{Size: "L", Stock: 8},
			{Size: "XL", Price: 2800, Stock: 4},
		},
	},
	{
		Name: "Ceramic Pour-Over Dripper", Slug: "ceramic-pour-over-dripper", Brand: "Hario", Color: "white",
		Description: "Size 02 ceramic coffee dripper.", Price: 2290, Stock: 25,
		Barcode: strPtr("4977642723016"),
	},
	{
		Name: "Stainless Steel Water Bottle", Slug: "stainless-steel-water-bottle", Brand: "Storefront", Color: "black",
		Description: "750 ml double-walled bottle.", Price: 1990, Stock: 40,
	},
}

// SeedCatalog inserts the demo products that are not there yet, keyed on
// slug.
func SeedCatalog(db *gorm.DB) error {
	for _, p := range demoProducts {
		var existing models.Product
		err := db.Unscoped().Where("slug = ?", p.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		p := p
		p.Variants = append([]models.ProductVariant(nil), p.Variants...)
		if err := db.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
