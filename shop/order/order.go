// Package order models the checkout draft and the finalized order sent to the administrator.
package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/shop/cart"
)

// ErrNoItems is returned when finalizing an order without any priced line.
var ErrNoItems = errors.New("order: no items")

// Draft collects customer details during checkout. An empty Email means it was not provided.
type Draft struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
}

// IsZero reports whether no field has been collected yet.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// Finalized is an ephemeral order built at confirmation time. It is never persisted.
type Finalized struct {
	ID        string
	CreatedAt time.Time
	Lines     []cart.Line
	Total     decimal.Decimal
	Customer  Draft
}

// NewID returns a random order identifier.
func NewID() string {
	return uuid.NewString()
}

// Finalize snapshots a priced cart and the collected draft into an order.
func Finalize(id string, at time.Time, sum cart.Summary, d Draft) (Finalized, error) {
	if len(sum.Lines) == 0 {
		return Finalized{}, ErrNoItems
	}
	return Finalized{
		ID:        id,
		CreatedAt: at,
		Lines:     append([]cart.Line(nil), sum.Lines...),
		Total:     sum.Total,
		Customer:  d,
	}, nil
}
