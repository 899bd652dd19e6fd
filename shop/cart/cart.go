// Package cart holds the per-session shopping cart and its pricing rules.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/m3rciful/shopbot/shop/catalog"
)

var (
	// ErrUnknownProduct is returned when adding a product that does not resolve in the catalog.
	ErrUnknownProduct = errors.New("cart: unknown product")
	// ErrOutOfStock is returned when adding a product whose stock is zero.
	ErrOutOfStock = errors.New("cart: product out of stock")
)

// ProductLookup resolves products by id.
type ProductLookup interface {
	GetProductByID(ctx context.Context, id int64) (catalog.Product, error)
}

// Cart maps product ids to positive quantities.
type Cart struct {
	Items map[int64]int `json:"items,omitempty"`
}

// IsEmpty reports whether the cart has no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity returns the quantity of a product, zero when absent.
func (c Cart) Quantity(id int64) int {
	return c.Items[id]
}

// ProductIDs returns the ids in ascending order.
func (c Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a deep copy.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make(map[int64]int, len(c.Items))
	for id, qty := range c.Items {
		items[id] = qty
	}
	return Cart{Items: items}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// AddOne increments the quantity of a product by one after checking it exists and is in stock.
// Stock is read from the catalog and never decremented here.
func (c *Cart) AddOne(ctx context.Context, lookup ProductLookup, id int64) (catalog.Product, error) {
	p, err := lookup.GetProductByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Product{}, ErrUnknownProduct
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("add product %d: %w", id, err)
	}
	if !p.InStock() {
		return p, ErrOutOfStock
	}
	if c.Items == nil {
		c.Items = make(map[int64]int)
	}
	c.Items[id]++
	return p, nil
}
