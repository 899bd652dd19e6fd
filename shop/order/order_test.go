package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/shop/cart"
	"github.com/m3rciful/shopbot/shop/catalog"
)

func sampleSummary() cart.Summary {
	return cart.Summary{
		Lines: []cart.Line{{
			Product:  catalog.Product{ID: 1, Name: "Cream_XL"},
			Quantity: 2,
			Subtotal: decimal.NewFromInt(100),
		}},
		Total: decimal.NewFromInt(100),
	}
}

func TestFinalize(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := Draft{Name: "Ana", Phone: "0700", Address: "Str. X"}

	o, err := Finalize("id-1", at, sampleSummary(), d)
	require.NoError(t, err)
	assert.Equal(t, "id-1", o.ID)
	assert.Equal(t, at, o.CreatedAt)
	assert.Equal(t, d, o.Customer)
	assert.Len(t, o.Lines, 1)

	_, err = Finalize("id-2", at, cart.Summary{}, d)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestReceiptRendering(t *testing.T) {
	sum := sampleSummary()
	got := Receipt("Title", sum.Lines, sum.Total, Draft{Name: "Ana", Phone: "0700", Address: "Str. X"}, "RON")
	want := "Title\n" +
		"Cream\\_XL x2: 100 RON\n" +
		"\n*Total*: 100 RON\n\n" +
		"*Customer details*:\nName: Ana\nPhone: 0700\nAddress: Str. X\nEmail: not provided"
	assert.Equal(t, want, got)

	assert.Contains(t, Customer(Draft{Email: "a@b.example"}), "Email: a@b.example")
	assert.Equal(t, "5", Money(decimal.NewFromInt(5), ""))
}

func TestDraftIsZero(t *testing.T) {
	assert.True(t, Draft{}.IsZero())
	assert.False(t, Draft{Email: "x"}.IsZero())
	assert.NotEqual(t, NewID(), NewID())
}
