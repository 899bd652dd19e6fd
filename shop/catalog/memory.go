package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store, used by tests and local runs without a database.
type MemoryStore struct {
	mu         sync.RWMutex
	categories []string
	products   []Product
}

// NewMemoryStore builds a store from categories and products in the given order.
func NewMemoryStore(categories []string, products []Product) *MemoryStore {
	return &MemoryStore{
		categories: append([]string(nil), categories...),
		products:   append([]Product(nil), products...),
	}
}

// ListCategories implements Store.
func (m *MemoryStore) ListCategories(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.categories...), nil
}

// ListProductsByCategory implements Store.
func (m *MemoryStore) ListProductsByCategory(_ context.Context, name string) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Product{}
	for _, p := range m.products {
		if p.Category == name {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProductByID implements Store.
func (m *MemoryStore) GetProductByID(_ context.Context, id int64) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

// MinProductIDPerCategory implements Store.
func (m *MemoryStore) MinProductIDPerCategory(context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	min := make(map[string]int64)
	for _, p := range m.products {
		if cur, ok := min[p.Category]; !ok || p.ID < cur {
			min[p.Category] = p.ID
		}
	}
	ids := make([]int64, 0, len(min))
	for _, id := range min {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Put inserts or replaces a product.
func (m *MemoryStore) Put(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p
			return
		}
	}
	m.products = append(m.products, p)
}

// Remove deletes a product; it is a no-op for unknown ids.
func (m *MemoryStore) Remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return
		}
	}
}
