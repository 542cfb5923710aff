package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/config"
	"github.com/hsmarket/storefront/pkg/ctx"
)

type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (cc *CatalogController) Products(c *ctx.Context) {
	products, err := cc.catalog.ListProducts(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(products)
}

func (cc *CatalogController) Product(c *ctx.Context) {
	product, err := cc.catalog.GetProduct(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(product)
}

func (cc *CatalogController) Categories(c *ctx.Context) {
	categories, err := cc.catalog.ListCategories(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(categories)
}

func (cc *CatalogController) Collections(c *ctx.Context) {
	cols, err := cc.catalog.Collections(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(cols)
}

func (cc *CatalogController) StoreProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := cc.catalog.CreateProduct(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(product)
}

func (cc *CatalogController) UpdateProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := cc.catalog.UpdateProduct(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(product)
}

func (cc *CatalogController) DestroyProduct(c *ctx.Context) {
	if err := cc.catalog.DeleteProduct(c.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

func (cc *CatalogController) StoreCategory(c *ctx.Context) {
	var in services.CategoryInput
	if !c.BindJSON(&in) {
		return
	}
	category, err := cc.catalog.CreateCategory(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(category)
}

func (cc *CatalogController) DestroyCategory(c *ctx.Context) {
	if err := cc.catalog.DeleteCategory(c.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

// SeedCategories handles POST /api/admin/categories/seed?confirm=true.
func (cc *CatalogController) SeedCategories(c *ctx.Context) {
	confirm := strings.EqualFold(c.Query("confirm"), "true") || c.Query("confirm") == "1"
	seeded, err := cc.catalog.SeedCategories(c.Context(), confirm)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(seeded)
}

// Upload handles a multipart POST with a single "file" part.
func (cc *CatalogController) Upload(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, config.UploadMaxBytes())
	file, header, err := c.R.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Error(http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		c.ValidationError(map[string]string{"file": "The file field is required."})
		return
	}
	defer file.Close()

	url, err := cc.catalog.UploadImage(c.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(map[string]string{"url": url})
}
