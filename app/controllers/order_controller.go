package controllers

import (
	"time"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
	now    func() time.Time
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders, now: time.Now}
}

// Store handles POST /api/orders.
func (oc *OrderController) Store(c *ctx.Context) {
	var in services.OrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.SubmitOrder(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(order)
}

// Index handles GET /api/admin/orders?status=&q=.
func (oc *OrderController) Index(c *ctx.Context) {
	orders, err := oc.orders.ListOrders(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(services.FilterOrders(orders, c.Query("status"), c.Query("q")))
}

// Summary handles GET /api/admin/orders/summary.
func (oc *OrderController) Summary(c *ctx.Context) {
	orders, err := oc.orders.ListOrders(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(oc.orders.Summarize(orders))
}

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status.
func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	var in statusInput
	if !c.BindJSON(&in) {
		return
	}
	if err := oc.orders.SetOrderStatus(c.Context(), c.Param("id"), models.OrderStatus(in.Status)); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

// Export handles GET /api/admin/orders/export.
func (oc *OrderController) Export(c *ctx.Context) {
	export, err := oc.orders.ExportOrders(c.Context(), oc.now())
	if err != nil {
		fail(c, err)
		return
	}
	c.Attachment(export.Filename, export.ContentType, export.Content)
}
