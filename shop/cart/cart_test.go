package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/shop/catalog"
)

type brokenLookup struct{}

func (brokenLookup) GetProductByID(context.Context, int64) (catalog.Product, error) {
	return catalog.Product{}, errors.New("connection reset")
}

func testStore() *catalog.MemoryStore {
	return catalog.NewMemoryStore([]string{"Skincare"}, []catalog.Product{
		{ID: 1, Category: "Skincare", Name: "Cream", Price: decimal.NewFromInt(50), Stock: 3},
		{ID: 2, Category: "Skincare", Name: "Serum", Price: decimal.RequireFromString("12.5"), Stock: 1},
		{ID: 3, Category: "Skincare", Name: "Mask", Price: decimal.NewFromInt(20), Stock: 0},
	})
}

func TestAddOne(t *testing.T) {
	ctx := context.Background()
	store := testStore()
	var c Cart

	p, err := c.AddOne(ctx, store, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cream", p.Name)
	_, err = c.AddOne(ctx, store, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Quantity(1))

	_, err = c.AddOne(ctx, store, 3)
	assert.ErrorIs(t, err, ErrOutOfStock)
	_, err = c.AddOne(ctx, store, 42)
	assert.ErrorIs(t, err, ErrUnknownProduct)
	_, err = c.AddOne(ctx, brokenLookup{}, 1)
	assert.ErrorContains(t, err, "connection reset")

	assert.Equal(t, map[int64]int{1: 2}, c.Items)
}

func TestCloneIsIndependent(t *testing.T) {
	c := Cart{Items: map[int64]int{1: 1}}
	cp := c.Clone()
	cp.Items[1] = 5
	cp.Items[2] = 1
	assert.Equal(t, map[int64]int{1: 1}, c.Items)
	assert.True(t, Cart{}.Clone().IsEmpty())

	cp.Clear()
	assert.True(t, cp.IsEmpty())
}

func TestPriceSkipsVanishedProducts(t *testing.T) {
	ctx := context.Background()
	store := testStore()
	c := Cart{Items: map[int64]int{1: 2, 2: 3}}

	sum, err := Price(ctx, store, c)
	require.NoError(t, err)
	require.Len(t, sum.Lines, 2)
	assert.Equal(t, "137.5", sum.Total.String())
	assert.Equal(t, "37.5", sum.Lines[1].Subtotal.String())

	store.Remove(1)
	sum, err = Price(ctx, store, c)
	require.NoError(t, err)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, int64(2), sum.Lines[0].Product.ID)
	assert.Equal(t, "37.5", sum.Total.String())

	sum, err = Price(ctx, store, Cart{})
	require.NoError(t, err)
	assert.True(t, sum.Total.IsZero())

	_, err = Price(ctx, brokenLookup{}, c)
	assert.Error(t, err)
}

func TestProductIDsSorted(t *testing.T) {
	c := Cart{Items: map[int64]int{9: 1, 2: 1, 5: 1}}
	assert.Equal(t, []int64{2, 5, 9}, c.ProductIDs())
}
