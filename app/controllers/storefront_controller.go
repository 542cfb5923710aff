package controllers

import (
	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/pkg/ctx"
)

type StorefrontController struct {
	reviews   *services.ReviewService
	unitPrice float64
}

func NewStorefrontController(reviews *services.ReviewService, unitPrice float64) *StorefrontController {
	return &StorefrontController{reviews: reviews, unitPrice: unitPrice}
}

// Reviews always answers 200; generation failures fall back silently.
func (sc *StorefrontController) Reviews(c *ctx.Context) {
	c.Success(sc.reviews.GenerateReviews(c.Context()))
}

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options lists the closed sets the order form and dashboard render.
func (sc *StorefrontController) Options(c *ctx.Context) {
	colors := make([]option, 0, len(models.CaseColors))
	for _, col := range models.CaseColors {
		colors = append(colors, option{Value: string(col), Label: col.Label()})
	}
	statuses := make([]option, 0, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		statuses = append(statuses, option{Value: string(s), Label: s.Label()})
	}
	c.Success(map[string]interface{}{
		"cities":         models.Cities,
		"colors":         colors,
		"statuses":       statuses,
		"unitPrice":      sc.unitPrice,
		"defaultProduct": models.DefaultProduct(),
	})
}
