// Package repositories is the persistence gateway: the orders, products and
// categories collections behind one interface per collection, with MongoDB,
// SQL (gorm) and in-memory backends.
package repositories

import (
	"context"
	"errors"

	"github.com/hsmarket/storefront/app/models"
)

// ErrNotFound is returned when a record with the given id does not exist.
var ErrNotFound = errors.New("record not found")

// Collection names shared by every backend.
const (
	OrdersCollection     = "orders"
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
)

// OrderRepository stores orders. All returns newest first.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	All(ctx context.Context) ([]models.Order, error)
	Find(ctx context.Context, id string) (models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// ProductRepository stores products. Replace overwrites every field of the
// record, so optional fields absent from the argument end up unset.
type ProductRepository interface {
	All(ctx context.Context) ([]models.Product, error)
	Find(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Replace(ctx context.Context, product models.Product) error
	// Delete succeeds when id is already gone.
	Delete(ctx context.Context, id string) error
}

// CategoryRepository stores categories. Deleting one never touches products.
type CategoryRepository interface {
	All(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// Store bundles the three collections of one backend.
type Store struct {
	Orders     OrderRepository
	Products   ProductRepository
	Categories CategoryRepository
}
