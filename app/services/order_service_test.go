package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/repositories"
	"github.com/hsmarket/storefront/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []services.OrderEvent
}

func (r *recorder) Fire(_ string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, payload.(services.OrderEvent))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func yassine() services.OrderInput {
	return services.OrderInput{
		FullName:      "Yassine",
		PhoneNumber:   "0612345678",
		Address:       "12 Rue X",
		City:          "Casablanca",
		SelectedColor: "Red",
	}
}

func TestSubmitOrderStoresNewOrder(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	events := &recorder{}
	svc := services.NewOrderService(store, events, services.OrderConfig{UnitPrice: 190})

	order, err := svc.SubmitOrder(ctx, yassine())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusNew, order.Status)
	assert.Equal(t, models.ColorRed, order.SelectedColor)
	assert.Equal(t, float64(190), order.TotalPrice)
	assert.False(t, order.CreatedAt.IsZero())

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Equal(t, "Yassine", orders[0].FullName)

	require.Len(t, events.events, 1)
	assert.Equal(t, services.EventOrderCreated, events.events[0].Type)
}

func TestSubmitOrderDefaultsColorToBlack(t *testing.T) {
	svc := services.NewOrderService(repositories.NewMemoryStore(), nil, services.OrderConfig{})
	in := yassine()
	in.SelectedColor = ""

	order, err := svc.SubmitOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.ColorBlack, order.SelectedColor)
}

func TestSubmitOrderRejectsInvalidInput(t *testing.T) {
	svc := services.NewOrderService(repositories.NewMemoryStore(), nil, services.OrderConfig{})

	cases := map[string]func(in *services.OrderInput){
		"fullName":      func(in *services.OrderInput) { in.FullName = "   " },
		"phoneNumber":   func(in *services.OrderInput) { in.PhoneNumber = "" },
		"address":       func(in *services.OrderInput) { in.Address = "" },
		"city":          func(in *services.OrderInput) { in.City = "Paris" },
		"selectedColor": func(in *services.OrderInput) { in.SelectedColor = "Blue" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := yassine()
			mutate(&in)

			_, err := svc.SubmitOrder(context.Background(), in)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, field)
		})
	}

	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSubmitOrderUsesCatalogProduct(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	product := models.Product{Name: "Watch X", Price: 349}
	require.NoError(t, store.Products.Create(ctx, &product))

	svc := services.NewOrderService(store, nil, services.OrderConfig{UnitPrice: 190})
	in := yassine()
	in.ProductID = product.ID

	order, err := svc.SubmitOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, product.ID, order.ProductID)
	assert.Equal(t, "Watch X", order.ProductName)
	assert.Equal(t, float64(349), order.TotalPrice)

	in.ProductID = "missing"
	_, err = svc.SubmitOrder(ctx, in)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "productId")
}

func TestSubmitOrderTimestampsIncrease(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := services.NewOrderService(repositories.NewMemoryStore(), nil, services.OrderConfig{Now: fixedClock(now)})

	a, err := svc.SubmitOrder(ctx, yassine())
	require.NoError(t, err)
	b, err := svc.SubmitOrder(ctx, yassine())
	require.NoError(t, err)

	assert.True(t, b.CreatedAt.After(a.CreatedAt))

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, b.ID, orders[0].ID, "newest first")
	assert.Equal(t, a.ID, orders[1].ID)
}

func TestSetOrderStatusAnyTransition(t *testing.T) {
	ctx := context.Background()
	svc := services.NewOrderService(repositories.NewMemoryStore(), nil, services.OrderConfig{})

	for _, from := range models.OrderStatuses {
		for _, to := range models.OrderStatuses {
			order, err := svc.SubmitOrder(ctx, yassine())
			require.NoError(t, err)
			require.NoError(t, svc.SetOrderStatus(ctx, order.ID, from))
			require.NoError(t, svc.SetOrderStatus(ctx, order.ID, to), "%s -> %s", from, to)

			orders, err := svc.ListOrders(ctx)
			require.NoError(t, err)
			for _, o := range orders {
				if o.ID == order.ID {
					assert.Equal(t, to, o.Status)
				}
			}
		}
	}
}

func TestSetOrderStatusErrors(t *testing.T) {
	ctx := context.Background()
	events := &recorder{}
	svc := services.NewOrderService(repositories.NewMemoryStore(), events, services.OrderConfig{})

	order, err := svc.SubmitOrder(ctx, yassine())
	require.NoError(t, err)

	err = svc.SetOrderStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	err = svc.SetOrderStatus(ctx, "nope", models.StatusShipped)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
	assert.ErrorIs(t, err, services.ErrNotFound)

	require.NoError(t, svc.SetOrderStatus(ctx, order.ID, models.StatusShipped))
	require.Len(t, events.events, 2)
	assert.Equal(t, services.EventOrderStatusChanged, events.events[1].Type)
	assert.Equal(t, models.StatusShipped, events.events[1].Order.Status)
}

func TestFilterOrders(t *testing.T) {
	orders := []models.Order{
		{ID: "aaa111", FullName: "Yassine Alaoui", PhoneNumber: "0612345678", Status: models.StatusNew},
		{ID: "bbb222", FullName: "Sara", PhoneNumber: "0700000000", Status: models.StatusDelivered},
		{ID: "ccc333", FullName: "Karim", PhoneNumber: "0655555555", Status: models.StatusNew},
	}

	assert.Len(t, services.FilterOrders(orders, "all", ""), 3)
	assert.Len(t, services.FilterOrders(orders, "", ""), 3)
	assert.Len(t, services.FilterOrders(orders, "new", ""), 2)
	assert.Len(t, services.FilterOrders(orders, "new", "yassine"), 1)
	assert.Len(t, services.FilterOrders(orders, "all", "0700"), 1)
	assert.Len(t, services.FilterOrders(orders, "all", "ccc"), 1)
	assert.Empty(t, services.FilterOrders(orders, "shipped", ""))
}

func TestSummarize(t *testing.T) {
	svc := services.NewOrderService(repositories.NewMemoryStore(), nil, services.OrderConfig{UnitPrice: 190})

	assert.Equal(t, services.OrderSummary{}, svc.Summarize(nil))

	sum := svc.Summarize([]models.Order{
		{Status: models.StatusNew, TotalPrice: 190},
		{Status: models.StatusDelivered},
		{Status: models.StatusCancelled, TotalPrice: 500},
	})
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.New)
	assert.Equal(t, float64(380), sum.Revenue)
	assert.Equal(t, 33, sum.DeliveryRate)
}
