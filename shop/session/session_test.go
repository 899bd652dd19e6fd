package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/shop/cart"
	"github.com/m3rciful/shopbot/shop/order"
)

func sample() *Session {
	return &Session{
		State:    StateCheckoutAddress,
		Category: "Skincare",
		Cart:     cart.Cart{Items: map[int64]int{1: 2}},
		Order:    order.Draft{Name: "Ana", Phone: "0700"},
	}
}

func TestStatePredicates(t *testing.T) {
	assert.True(t, StateCheckoutName.InCheckout())
	assert.True(t, StateConfirmOrder.InCheckout())
	assert.False(t, StateCartAdded.InCheckout())
	assert.True(t, StateCheckoutEmail.AwaitsText())
	assert.False(t, StateConfirmOrder.AwaitsText())
	assert.False(t, StateMenu.AwaitsText())
}

func TestCloneDeepCopiesCart(t *testing.T) {
	s := sample()
	cp := s.Clone()
	cp.Cart.Items[1] = 9
	cp.Order.Name = "Bob"
	assert.Equal(t, 2, s.Cart.Quantity(1))
	assert.Equal(t, "Ana", s.Order.Name)

	var nilSession *Session
	assert.Equal(t, StateMenu, nilSession.Clone().State)
	assert.Equal(t, StateMenu, (&Session{}).Clone().State)
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	fresh, err := store.Load(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, StateMenu, fresh.State)
	assert.True(t, fresh.Cart.IsEmpty())

	s := sample()
	require.NoError(t, store.Save(ctx, 100, s))
	s.Cart.Items[1] = 50

	got, err := store.Load(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)

	got.Cart.Items[7] = 1
	again, err := store.Load(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Cart.Quantity(7))

	other, err := store.Load(ctx, 200)
	require.NoError(t, err)
	assert.True(t, other.Cart.IsEmpty())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SHOPBOT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SHOPBOT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	prefix := "shop:test:" + time.Now().Format("150405.000000") + ":"
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	})
	store := NewRedisStore(client, RedisOptions{KeyPrefix: prefix, TTL: time.Minute})
	exerciseStore(t, store)

	ttl, err := client.TTL(context.Background(), prefix+"100").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
