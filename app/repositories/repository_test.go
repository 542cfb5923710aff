package repositories_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/repositories"
	_ "github.com/hsmarket/storefront/database/migrations"
	"github.com/hsmarket/storefront/pkg/database"
	"github.com/hsmarket/storefront/pkg/migration"
)

// backends returns every store that can run here. SQLite needs cgo and
// MongoDB needs MONGO_TEST_URI; either is skipped when unavailable.
func backends(t *testing.T) map[string]func(t *testing.T) repositories.Store {
	return map[string]func(t *testing.T) repositories.Store{
		"memory": func(t *testing.T) repositories.Store {
			return repositories.NewMemoryStore()
		},
		"sqlite": func(t *testing.T) repositories.Store {
			db, err := database.ConnectSQL("sqlite", filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Skipf("sqlite unavailable: %v", err)
			}
			t.Cleanup(func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			})
			require.NoError(t, migration.New(db).WithOutput(io.Discard).Run())
			return repositories.NewGormStore(db)
		},
		"mongo": func(t *testing.T) repositories.Store {
			uri := os.Getenv("MONGO_TEST_URI")
			if uri == "" {
				t.Skip("MONGO_TEST_URI not set")
			}
			ctx := context.Background()
			db, err := database.ConnectMongo(ctx, uri, "hsmarket_test_"+time.Now().Format("150405000"))
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = db.Drop(context.Background())
				_ = db.Client().Disconnect(context.Background())
			})
			require.NoError(t, repositories.EnsureMongoIndexes(ctx, db))
			return repositories.NewMongoStore(db)
		},
	}
}

func TestOrders(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

			first := &models.Order{FullName: "Yassine", PhoneNumber: "0612345678", City: "Casablanca",
				SelectedColor: models.ColorBlack, Status: models.StatusNew, CreatedAt: base, TotalPrice: 190}
			second := &models.Order{FullName: "Salma", PhoneNumber: "0700000000", City: "Rabat",
				SelectedColor: models.ColorPink, Status: models.StatusNew, CreatedAt: base.Add(time.Minute), TotalPrice: 190}
			require.NoError(t, store.Orders.Create(ctx, first))
			require.NoError(t, store.Orders.Create(ctx, second))
			assert.NotEmpty(t, first.ID)
			assert.NotEqual(t, first.ID, second.ID)

			all, err := store.Orders.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Salma", all[0].FullName, "newest first")
			assert.True(t, all[1].CreatedAt.Equal(base))

			require.NoError(t, store.Orders.UpdateStatus(ctx, first.ID, models.StatusShipped))
			got, err := store.Orders.Find(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusShipped, got.Status)
			assert.Equal(t, "Yassine", got.FullName)

			assert.ErrorIs(t, store.Orders.UpdateStatus(ctx, "missing", models.StatusShipped), repositories.ErrNotFound)
			_, err = store.Orders.Find(ctx, "missing")
			assert.ErrorIs(t, err, repositories.ErrNotFound)
		})
	}
}

func TestProducts(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			p := &models.Product{Name: "SonicPod", Price: 190, OriginalPrice: 350, Image: "a.jpg",
				Images: []string{"b.jpg", "c.jpg"}, Description: "ANC", Category: "cat-1"}
			require.NoError(t, store.Products.Create(ctx, p))
			require.NotEmpty(t, p.ID)

			got, err := store.Products.Find(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"b.jpg", "c.jpg"}, got.Images)
			assert.Equal(t, "cat-1", got.Category)

			require.NoError(t, store.Products.Replace(ctx, models.Product{ID: p.ID, Name: "SonicPod 2", Price: 170, Image: "a.jpg"}))
			got, err = store.Products.Find(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "SonicPod 2", got.Name)
			assert.Empty(t, got.Category)
			assert.Empty(t, got.Images)
			assert.Zero(t, got.OriginalPrice)

			assert.ErrorIs(t, store.Products.Replace(ctx, models.Product{ID: "missing", Name: "x"}), repositories.ErrNotFound)

			all, err := store.Products.All(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)

			require.NoError(t, store.Products.Delete(ctx, p.ID))
			assert.NoError(t, store.Products.Delete(ctx, p.ID), "deleting a missing product is a no-op")
			all, err = store.Products.All(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCategories(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			n, err := store.Categories.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)

			c := &models.Category{Name: "سماعات", Kind: models.KindAudio}
			require.NoError(t, store.Categories.Create(ctx, c))
			require.NoError(t, store.Categories.Create(ctx, &models.Category{Name: "عروض حصرية", Kind: models.KindOffer}))

			p := &models.Product{Name: "SonicPod", Price: 190, Category: c.ID}
			require.NoError(t, store.Products.Create(ctx, p))

			n, err = store.Categories.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)

			require.NoError(t, store.Categories.Delete(ctx, c.ID))
			assert.NoError(t, store.Categories.Delete(ctx, c.ID), "deleting a missing category is a no-op")

			left, err := store.Categories.All(ctx)
			require.NoError(t, err)
			require.Len(t, left, 1)
			assert.Equal(t, models.KindOffer, left[0].Kind)

			orphan, err := store.Products.Find(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, c.ID, orphan.Category, "deleting a category leaves its products alone")
		})
	}
}
