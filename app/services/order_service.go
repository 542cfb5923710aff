package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/repositories"
	"github.com/hsmarket/storefront/pkg/logger"
	"github.com/hsmarket/storefront/pkg/metrics"
	"github.com/hsmarket/storefront/pkg/validate"
)

// Events fired by OrderService.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Dispatcher is the slice of event.Bus the services use.
type Dispatcher interface {
	Fire(event string, payload interface{})
}

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// OrderInput is the checkout form.
type OrderInput struct {
	FullName      string `json:"fullName"      validate:"required,max=120"`
	PhoneNumber   string `json:"phoneNumber"   validate:"required,max=32"`
	Address       string `json:"address"       validate:"required,max=500"`
	City          string `json:"city"          validate:"required,in=Casablanca,Rabat,Marrakech,Tanger,Agadir,Fes,Meknes,Oujda,Other"`
	SelectedColor string `json:"selectedColor" validate:"nullable,in=Red,Black,Pink,Green"`
	ProductID     string `json:"productId"     validate:"nullable,max=64"`
}

// OrderConfig tunes an OrderService. Zero values take defaults.
type OrderConfig struct {
	// UnitPrice is recorded on orders that name no catalog product.
	UnitPrice float64
	// Now replaces the wall clock in tests.
	Now func() time.Time
}

type OrderService struct {
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	events    Dispatcher
	unitPrice float64
	clock     *orderClock
}

func NewOrderService(store repositories.Store, events Dispatcher, cfg OrderConfig) *OrderService {
	if cfg.UnitPrice <= 0 {
		cfg.UnitPrice = 190
	}
	return &OrderService{
		orders:    store.Orders,
		products:  store.Products,
		events:    events,
		unitPrice: cfg.UnitPrice,
		clock:     newOrderClock(cfg.Now),
	}
}

// UnitPrice is the default order total.
func (s *OrderService) UnitPrice() float64 { return s.unitPrice }

// SubmitOrder validates the checkout form and stores a new order with
// status "new". When ProductID names a catalog product, the order records
// that product and its price; otherwise the unit price applies.
func (s *OrderService) SubmitOrder(ctx context.Context, in OrderInput) (models.Order, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.ProductID = strings.TrimSpace(in.ProductID)

	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Order{}, invalid(errs)
	}

	order := models.Order{
		FullName:      in.FullName,
		PhoneNumber:   in.PhoneNumber,
		Address:       in.Address,
		City:          in.City,
		SelectedColor: models.CaseColor(in.SelectedColor),
		Status:        models.StatusNew,
		TotalPrice:    s.unitPrice,
	}
	if order.SelectedColor == "" {
		order.SelectedColor = models.ColorBlack
	}

	if in.ProductID != "" {
		product, err := s.products.Find(ctx, in.ProductID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return models.Order{}, invalid(map[string]string{"productId": "The selected productId is invalid."})
		case err != nil:
			return models.Order{}, fmt.Errorf("submit order: load product: %w", err)
		}
		order.ProductID = product.ID
		order.ProductName = product.Name
		order.TotalPrice = product.Price
	}

	order.CreatedAt = s.clock.next()
	if err := s.orders.Create(ctx, &order); err != nil {
		return models.Order{}, fmt.Errorf("submit order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	logger.WithCtx(ctx).Info("order created", "order_id", order.ID, "city", order.City, "total", order.TotalPrice)
	s.fire(EventOrderCreated, order)
	return order, nil
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// SetOrderStatus overwrites the status. Any of the five statuses may follow
// any other.
func (s *OrderService) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return fmt.Errorf("set order status: %w", err)
	}

	metrics.OrderStatusChanges.WithLabelValues(string(status)).Inc()
	logger.WithCtx(ctx).Info("order status changed", "order_id", id, "status", status)

	if order, err := s.orders.Find(ctx, id); err == nil {
		s.fire(EventOrderStatusChanged, order)
	}
	return nil
}

func (s *OrderService) fire(name string, order models.Order) {
	if s.events != nil {
		s.events.Fire(name, OrderEvent{Type: name, Order: order})
	}
}

// FilterOrders keeps orders matching status ("" or "all" matches every
// status) and search: a case-insensitive name match or a substring of the
// phone number or id.
func FilterOrders(orders []models.Order, status, search string) []models.Order {
	search = strings.TrimSpace(search)
	needle := strings.ToLower(search)

	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if status != "" && status != "all" && string(o.Status) != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.FullName), needle) &&
			!strings.Contains(o.PhoneNumber, search) &&
			!strings.Contains(o.ID, search) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// OrderSummary is the dashboard header.
type OrderSummary struct {
	Total        int     `json:"total"`
	New          int     `json:"new"`
	Revenue      float64 `json:"revenue"`
	DeliveryRate int     `json:"deliveryRate"`
}

// Summarize counts orders, sums revenue over non-cancelled orders and
// computes the rounded delivered percentage.
func (s *OrderService) Summarize(orders []models.Order) OrderSummary {
	sum := OrderSummary{Total: len(orders)}
	delivered := 0
	for _, o := range orders {
		switch o.Status {
		case models.StatusNew:
			sum.New++
		case models.StatusDelivered:
			delivered++
		}
		if o.Status != models.StatusCancelled {
			sum.Revenue += s.priceOf(o)
		}
	}
	if len(orders) > 0 {
		sum.DeliveryRate = int(math.Round(float64(delivered) / float64(len(orders)) * 100))
	}
	return sum
}

func (s *OrderService) priceOf(o models.Order) float64 {
	if o.TotalPrice > 0 {
		return o.TotalPrice
	}
	return s.unitPrice
}
