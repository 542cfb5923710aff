// Package schema is the read-only GraphQL view of the catalog.
package schema

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/services"
	gql "github.com/hsmarket/storefront/pkg/graphql"
)

// Catalog is the part of services.CatalogService the schema reads.
type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// New builds the schema:
//
//	{ products { id name price categoryLabel } categories { name productCount icon } }
func New(catalog Catalog) (graphql.Schema, error) {
	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"price":         &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"originalPrice": &graphql.Field{Type: graphql.Float, Resolve: originalPrice},
			"image":         &graphql.Field{Type: graphql.String},
			"images": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Product).Gallery(), nil
				},
			},
			"description": &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"discountPercent": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Product).DiscountPercent(), nil
				},
			},
			"categoryLabel": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					categories, err := catalog.ListCategories(p.Context)
					if err != nil {
						return nil, err
					}
					return services.CategoryLabel(categories, p.Source.(models.Product).Category), nil
				},
			},
		},
	})

	categoryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Category",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"kind": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(models.ParseCategoryKind(string(p.Source.(models.Category).Kind))), nil
				},
			},
			"icon": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Category).Motif().Icon, nil
				},
			},
			"gradient": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Category).Motif().Gradient, nil
				},
			},
			"productCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					products, err := catalog.ListProducts(p.Context)
					if err != nil {
						return nil, err
					}
					return services.ProductCountForCategory(products, p.Source.(models.Category).ID), nil
				},
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return catalog.ListProducts(p.Context)
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					product, err := catalog.GetProduct(p.Context, id)
					if errors.Is(err, services.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return product, nil
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return catalog.ListCategories(p.Context)
				},
			},
		},
	})

	return gql.NewSchema(query)
}

func originalPrice(p graphql.ResolveParams) (interface{}, error) {
	if op := p.Source.(models.Product).OriginalPrice; op > 0 {
		return op, nil
	}
	return nil, nil
}
