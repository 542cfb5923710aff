// Package migrations registers the schema of the SQL backends. It is
// imported by cmd/hsmarket so every migration is known at startup.
package migrations

import (
	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260301000000_create_categories_table", &createTable{name: "categories", model: &models.Category{}})
	migration.Register("20260301000001_create_products_table", &createTable{name: "products", model: &models.Product{}})
	migration.Register("20260301000002_create_orders_table", &createTable{name: "orders", model: &models.Order{}})
}

type createTable struct {
	name  string
	model interface{}
}

func (m *createTable) Up(db *gorm.DB) error {
	return db.Table(m.name).AutoMigrate(m.model)
}

func (m *createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}
