package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hsmarket/storefront/app/models"
)

// NewMemoryStore returns a process-local store. Data is lost on restart.
func NewMemoryStore() Store {
	return Store{
		Orders:     &memoryOrders{rows: map[string]models.Order{}},
		Products:   &memoryProducts{rows: map[string]models.Product{}},
		Categories: &memoryCategories{rows: map[string]models.Category{}},
	}
}

type memoryOrders struct {
	mu   sync.RWMutex
	rows map[string]models.Order
}

func (m *memoryOrders) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = uuid.NewString()
	m.rows[order.ID] = *order
	return nil
}

func (m *memoryOrders) All(_ context.Context) ([]models.Order, error) {
	m.mu.RLock()
	out := make([]models.Order, 0, len(m.rows))
	for _, o := range m.rows {
		out = append(out, o)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memoryOrders) Find(_ context.Context, id string) (models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.rows[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memoryOrders) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	m.rows[id] = o
	return nil
}

type memoryProducts struct {
	mu    sync.RWMutex
	rows  map[string]models.Product
	order []string
}

func (m *memoryProducts) All(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneProduct(m.rows[id]))
	}
	return out, nil
}

func (m *memoryProducts) Find(_ context.Context, id string) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.rows[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *memoryProducts) Create(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product.ID = uuid.NewString()
	m.rows[product.ID] = cloneProduct(*product)
	m.order = append(m.order, product.ID)
	return nil
}

func (m *memoryProducts) Replace(_ context.Context, product models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[product.ID]; !ok {
		return ErrNotFound
	}
	m.rows[product.ID] = cloneProduct(product)
	return nil
}

func (m *memoryProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return nil
	}
	delete(m.rows, id)
	m.order = removeID(m.order, id)
	return nil
}

type memoryCategories struct {
	mu    sync.RWMutex
	rows  map[string]models.Category
	order []string
}

func (m *memoryCategories) All(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *memoryCategories) Create(_ context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	category.ID = uuid.NewString()
	m.rows[category.ID] = *category
	m.order = append(m.order, category.ID)
	return nil
}

func (m *memoryCategories) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return nil
	}
	delete(m.rows, id)
	m.order = removeID(m.order, id)
	return nil
}

func (m *memoryCategories) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.rows)), nil
}

func cloneProduct(p models.Product) models.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
