package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/shop/catalog"
)

// Line is one priced cart entry.
type Line struct {
	Product  catalog.Product
	Quantity int
	Subtotal decimal.Decimal
}

// Summary is a priced snapshot of a cart.
type Summary struct {
	Lines []Line
	Total decimal.Decimal
}

// Price looks up every cart entry in the catalog and sums price × quantity.
// Entries whose product no longer resolves are skipped and contribute nothing.
func Price(ctx context.Context, lookup ProductLookup, c Cart) (Summary, error) {
	sum := Summary{Total: decimal.Zero}
	for _, id := range c.ProductIDs() {
		p, err := lookup.GetProductByID(ctx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return Summary{}, fmt.Errorf("price product %d: %w", id, err)
		}
		qty := c.Items[id]
		sub := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		sum.Lines = append(sum.Lines, Line{Product: p, Quantity: qty, Subtotal: sub})
		sum.Total = sum.Total.Add(sub)
	}
	return sum, nil
}
