package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/pkg/metrics"
	"gorm.io/gorm"
)

// NewGormStore maps each collection to a SQL table of the same name.
// Records get UUIDv4 ids. Tables are created by the registered migrations.
func NewGormStore(db *gorm.DB) Store {
	return Store{
		Orders:     &gormOrders{db: db},
		Products:   &gormProducts{db: db},
		Categories: &gormCategories{db: db},
	}
}

func gormErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// exists checks the id up front; MySQL reports zero affected rows for
// updates that change nothing.
func exists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type gormOrders struct {
	db *gorm.DB
}

func (g *gormOrders) table(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx).Table(OrdersCollection)
}

func (g *gormOrders) Create(ctx context.Context, order *models.Order) error {
	defer metrics.ObserveDB(OrdersCollection, "insert", time.Now())

	order.ID = uuid.NewString()
	if err := g.table(ctx).Create(order).Error; err != nil {
		order.ID = ""
		return fmt.Errorf("sql: insert order: %w", err)
	}
	return nil
}

func (g *gormOrders) All(ctx context.Context) ([]models.Order, error) {
	defer metrics.ObserveDB(OrdersCollection, "select", time.Now())

	orders := []models.Order{}
	if err := g.table(ctx).Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("sql: list orders: %w", err)
	}
	return orders, nil
}

func (g *gormOrders) Find(ctx context.Context, id string) (models.Order, error) {
	defer metrics.ObserveDB(OrdersCollection, "select", time.Now())

	var order models.Order
	if err := g.table(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return models.Order{}, gormErr(err)
	}
	return order, nil
}

func (g *gormOrders) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	defer metrics.ObserveDB(OrdersCollection, "update", time.Now())

	if err := exists(g.table(ctx), id); err != nil {
		return err
	}
	if err := g.table(ctx).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("sql: update order status: %w", err)
	}
	return nil
}

type gormProducts struct {
	db *gorm.DB
}

func (g *gormProducts) table(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx).Table(ProductsCollection)
}

func (g *gormProducts) All(ctx context.Context) ([]models.Product, error) {
	defer metrics.ObserveDB(ProductsCollection, "select", time.Now())

	products := []models.Product{}
	if err := g.table(ctx).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("sql: list products: %w", err)
	}
	return products, nil
}

func (g *gormProducts) Find(ctx context.Context, id string) (models.Product, error) {
	defer metrics.ObserveDB(ProductsCollection, "select", time.Now())

	var product models.Product
	if err := g.table(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return models.Product{}, gormErr(err)
	}
	return product, nil
}

func (g *gormProducts) Create(ctx context.Context, product *models.Product) error {
	defer metrics.ObserveDB(ProductsCollection, "insert", time.Now())

	product.ID = uuid.NewString()
	if err := g.table(ctx).Create(product).Error; err != nil {
		product.ID = ""
		return fmt.Errorf("sql: insert product: %w", err)
	}
	return nil
}

// productColumns are written by Replace, zero values included.
var productColumns = []string{"name", "price", "original_price", "image", "images", "description", "category"}

func (g *gormProducts) Replace(ctx context.Context, product models.Product) error {
	defer metrics.ObserveDB(ProductsCollection, "update", time.Now())

	if err := exists(g.table(ctx), product.ID); err != nil {
		return err
	}
	err := g.table(ctx).Where("id = ?", product.ID).Select(productColumns).Updates(&product).Error
	if err != nil {
		return fmt.Errorf("sql: replace product: %w", err)
	}
	return nil
}

func (g *gormProducts) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveDB(ProductsCollection, "delete", time.Now())

	if err := g.table(ctx).Where("id = ?", id).Delete(&models.Product{}).Error; err != nil {
		return fmt.Errorf("sql: delete product: %w", err)
	}
	return nil
}

type gormCategories struct {
	db *gorm.DB
}

func (g *gormCategories) table(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx).Table(CategoriesCollection)
}

func (g *gormCategories) All(ctx context.Context) ([]models.Category, error) {
	defer metrics.ObserveDB(CategoriesCollection, "select", time.Now())

	categories := []models.Category{}
	if err := g.table(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("sql: list categories: %w", err)
	}
	return categories, nil
}

func (g *gormCategories) Create(ctx context.Context, category *models.Category) error {
	defer metrics.ObserveDB(CategoriesCollection, "insert", time.Now())

	category.ID = uuid.NewString()
	if err := g.table(ctx).Create(category).Error; err != nil {
		category.ID = ""
		return fmt.Errorf("sql: insert category: %w", err)
	}
	return nil
}

func (g *gormCategories) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveDB(CategoriesCollection, "delete", time.Now())

	if err := g.table(ctx).Where("id = ?", id).Delete(&models.Category{}).Error; err != nil {
		return fmt.Errorf("sql: delete category: %w", err)
	}
	return nil
}

func (g *gormCategories) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDB(CategoriesCollection, "count", time.Now())

	var n int64
	if err := g.table(ctx).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("sql: count categories: %w", err)
	}
	return n, nil
}
