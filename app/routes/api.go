// Package routes is the HTTP route table of the storefront and the admin
// dashboard.
package routes

import (
	"github.com/hsmarket/storefront/app/controllers"
	"github.com/hsmarket/storefront/pkg/ctx"
	"github.com/hsmarket/storefront/pkg/router"
)

// Controllers bundles the handlers the table points at.
type Controllers struct {
	Orders     *controllers.OrderController
	Catalog    *controllers.CatalogController
	Storefront *controllers.StorefrontController
	Admin      *controllers.AdminController
}

// RegisterAPI mounts /api. admin guards every admin route except login,
// which goes through loginLimit instead.
func RegisterAPI(r *router.Router, c Controllers, admin, loginLimit router.Middleware) {
	w := ctx.Wrap

	api := r.Group("/api")
	api.Get("/products", "products.index", w(c.Catalog.Products))
	api.Get("/products/{id}", "products.show", w(c.Catalog.Product))
	api.Get("/categories", "categories.index", w(c.Catalog.Categories))
	api.Get("/collections", "collections.index", w(c.Catalog.Collections))
	api.Get("/reviews", "reviews.index", w(c.Storefront.Reviews))
	api.Get("/storefront/options", "storefront.options", w(c.Storefront.Options))
	api.Post("/orders", "orders.store", w(c.Orders.Store))

	api.Post("/admin/login", "admin.login", w(c.Admin.Login), loginLimit)

	a := api.Group("/admin", admin)
	a.Post("/logout", "admin.logout", w(c.Admin.Logout))
	a.Get("/live", "admin.live", w(c.Admin.Live))
	a.Get("/orders/stream", "admin.orders.stream", w(c.Admin.Stream))

	a.Get("/orders", "admin.orders.index", w(c.Orders.Index))
	a.Get("/orders/summary", "admin.orders.summary", w(c.Orders.Summary))
	a.Get("/orders/export", "admin.orders.export", w(c.Orders.Export))
	a.Patch("/orders/{id}/status", "admin.orders.status", w(c.Orders.UpdateStatus))

	a.Post("/products", "admin.products.store", w(c.Catalog.StoreProduct))
	a.Put("/products/{id}", "admin.products.update", w(c.Catalog.UpdateProduct))
	a.Delete("/products/{id}", "admin.products.destroy", w(c.Catalog.DestroyProduct))
	a.Post("/uploads", "admin.uploads.store", w(c.Catalog.Upload))

	a.Post("/categories", "admin.categories.store", w(c.Catalog.StoreCategory))
	a.Post("/categories/seed", "admin.categories.seed", w(c.Catalog.SeedCategories))
	a.Delete("/categories/{id}", "admin.categories.destroy", w(c.Catalog.DestroyCategory))
}
