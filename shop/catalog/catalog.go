// Package catalog provides read-only access to product categories and products.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Category is a named product group. Names are unique.
type Category struct {
	Name string `db:"name"`
}

// Product is an immutable catalog record.
type Product struct {
	ID          int64           `db:"id"`
	Category    string          `db:"category"`
	Name        string          `db:"name"`
	Price       decimal.Decimal `db:"price"`
	Description string          `db:"description"`
	Stock       int             `db:"stock"`
	Image       string          `db:"image"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Store answers category and product queries.
type Store interface {
	// ListCategories returns category names in storage order.
	ListCategories(ctx context.Context) ([]string, error)
	// ListProductsByCategory returns an empty slice for unknown categories.
	ListProductsByCategory(ctx context.Context, name string) ([]Product, error)
	// GetProductByID returns ErrNotFound when the product does not exist.
	GetProductByID(ctx context.Context, id int64) (Product, error)
	// MinProductIDPerCategory returns the lowest product id of every non-empty category.
	MinProductIDPerCategory(ctx context.Context) ([]int64, error)
}

// HasCategory reports whether name is one of the store's categories.
func HasCategory(ctx context.Context, s Store, name string) (bool, error) {
	names, err := s.ListCategories(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
