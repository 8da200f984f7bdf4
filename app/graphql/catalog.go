// Package graphql defines the read-only catalogue schema.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	gql "github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/resource"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

var variantType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Variant",
	Fields: graphql.Fields{
		"id":      &graphql.Field{Type: graphql.Int},
		"name":    &graphql.Field{Type: graphql.String},
		"size":    &graphql.Field{Type: graphql.String},
		"price":   &graphql.Field{Type: graphql.Int},
		"inStock": &graphql.Field{Type: graphql.Boolean, Resolve: mapField("in_stock")},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.Int},
		"name":        &graphql.Field{Type: graphql.String},
		"slug":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.Int},
		"brand":       &graphql.Field{Type: graphql.String},
		"color":       &graphql.Field{Type: graphql.String},
		"barcode":     &graphql.Field{Type: graphql.String},
		"inStock":     &graphql.Field{Type: graphql.Boolean, Resolve: mapField("in_stock")},
		"images":      &graphql.Field{Type: graphql.NewList(graphql.String)},
		"variants":    &graphql.Field{Type: graphql.NewList(variantType)},
	},
})

// mapField reads a snake_case key from a resource.Map source.
func mapField(key string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if m, ok := p.Source.(resource.Map); ok {
			return m[key], nil
		}
		return nil, nil
	}
}

// NewCatalogSchema exposes products(search, limit) and product(slug).
func NewCatalogSchema(catalog *services.CatalogService, disk storage.Disk) (graphql.Schema, error) {
	toJSON := resources.Product(disk)

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"search": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					search, _ := p.Args["search"].(string)
					limit, _ := p.Args["limit"].(int)
					page, err := catalog.List(p.Context, search, 1, limit)
					if err != nil {
						return nil, err
					}
					return resource.Many(page.Products, toJSON), nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					slug, _ := p.Args["slug"].(string)
					product, err := catalog.Show(p.Context, slug)
					if err != nil || product == nil {
						return nil, err
					}
					return toJSON(*product), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
