package seeders

import (
	"context"
	"errors"
	"fmt"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/services"
)

func init() {
	Register("categories", SeedCategories)
	Register("products", SeedDefaultProduct)
}

// SeedCategories adds the four default categories. Existing categories
// are left alone unless env.Force is set.
func SeedCategories(ctx context.Context, env Env) error {
	_, err := env.Catalog.SeedCategories(ctx, env.Force)
	if errors.Is(err, services.ErrSeedNeedsConfirmation) {
		fmt.Fprint(env.Out, "(skipped: categories exist, use --force) ")
		return nil
	}
	return err
}

// SeedDefaultProduct adds the flagship earbuds when the catalog is empty,
// filed under the first audio category.
func SeedDefaultProduct(ctx context.Context, env Env) error {
	products, err := env.Catalog.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		fmt.Fprint(env.Out, "(skipped: catalog not empty) ")
		return nil
	}

	categories, err := env.Catalog.ListCategories(ctx)
	if err != nil {
		return err
	}

	p := models.DefaultProduct()
	in := services.ProductInput{
		Name:        p.Name,
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
	}
	for _, c := range categories {
		if c.Kind == models.KindAudio {
			in.Category = c.ID
			break
		}
	}
	_, err = env.Catalog.CreateProduct(ctx, in)
	return err
}
