package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoStore maps each collection to a MongoDB collection of the same
// name. Document ids are ObjectID hex strings stored as the string _id.
func NewMongoStore(db *mongo.Database) Store {
	return Store{
		Orders:     &mongoOrders{col: db.Collection(OrdersCollection)},
		Products:   &mongoProducts{col: db.Collection(ProductsCollection)},
		Categories: &mongoCategories{col: db.Collection(CategoriesCollection)},
	}
}

// EnsureMongoIndexes creates the index backing the newest-first order list.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(OrdersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create orders index: %w", err)
	}
	return nil
}

func newDocumentID() string {
	return primitive.NewObjectID().Hex()
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}

func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

type mongoOrders struct {
	col *mongo.Collection
}

func (m *mongoOrders) Create(ctx context.Context, order *models.Order) error {
	defer metrics.ObserveDB(OrdersCollection, "insert", time.Now())

	order.ID = newDocumentID()
	if _, err := m.col.InsertOne(ctx, order); err != nil {
		order.ID = ""
		return fmt.Errorf("mongo: insert order: %w", err)
	}
	return nil
}

func (m *mongoOrders) All(ctx context.Context) ([]models.Order, error) {
	defer metrics.ObserveDB(OrdersCollection, "select", time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find orders: %w", err)
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("mongo: decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoOrders) Find(ctx context.Context, id string) (models.Order, error) {
	defer metrics.ObserveDB(OrdersCollection, "select", time.Now())

	var order models.Order
	if err := m.col.FindOne(ctx, byID(id)).Decode(&order); err != nil {
		return models.Order{}, mongoErr(err)
	}
	return order, nil
}

func (m *mongoOrders) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	defer metrics.ObserveDB(OrdersCollection, "update", time.Now())

	res, err := m.col.UpdateOne(ctx, byID(id), bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("mongo: update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoProducts struct {
	col *mongo.Collection
}

func (m *mongoProducts) All(ctx context.Context) ([]models.Product, error) {
	defer metrics.ObserveDB(ProductsCollection, "select", time.Now())

	cursor, err := m.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: find products: %w", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("mongo: decode products: %w", err)
	}
	return products, nil
}

func (m *mongoProducts) Find(ctx context.Context, id string) (models.Product, error) {
	defer metrics.ObserveDB(ProductsCollection, "select", time.Now())

	var product models.Product
	if err := m.col.FindOne(ctx, byID(id)).Decode(&product); err != nil {
		return models.Product{}, mongoErr(err)
	}
	return product, nil
}

func (m *mongoProducts) Create(ctx context.Context, product *models.Product) error {
	defer metrics.ObserveDB(ProductsCollection, "insert", time.Now())

	product.ID = newDocumentID()
	if _, err := m.col.InsertOne(ctx, product); err != nil {
		product.ID = ""
		return fmt.Errorf("mongo: insert product: %w", err)
	}
	return nil
}

func (m *mongoProducts) Replace(ctx context.Context, product models.Product) error {
	defer metrics.ObserveDB(ProductsCollection, "update", time.Now())

	res, err := m.col.ReplaceOne(ctx, byID(product.ID), product)
	if err != nil {
		return fmt.Errorf("mongo: replace product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProducts) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveDB(ProductsCollection, "delete", time.Now())

	if _, err := m.col.DeleteOne(ctx, byID(id)); err != nil {
		return fmt.Errorf("mongo: delete product: %w", err)
	}
	return nil
}

type mongoCategories struct {
	col *mongo.Collection
}

func (m *mongoCategories) All(ctx context.Context) ([]models.Category, error) {
	defer metrics.ObserveDB(CategoriesCollection, "select", time.Now())

	cursor, err := m.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: find categories: %w", err)
	}
	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("mongo: decode categories: %w", err)
	}
	return categories, nil
}

func (m *mongoCategories) Create(ctx context.Context, category *models.Category) error {
	defer metrics.ObserveDB(CategoriesCollection, "insert", time.Now())

	category.ID = newDocumentID()
	if _, err := m.col.InsertOne(ctx, category); err != nil {
		category.ID = ""
		return fmt.Errorf("mongo: insert category: %w", err)
	}
	return nil
}

func (m *mongoCategories) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveDB(CategoriesCollection, "delete", time.Now())

	if _, err := m.col.DeleteOne(ctx, byID(id)); err != nil {
		return fmt.Errorf("mongo: delete category: %w", err)
	}
	return nil
}

func (m *mongoCategories) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDB(CategoriesCollection, "count", time.Now())

	n, err := m.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count categories: %w", err)
	}
	return n, nil
}
