package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/shopbot/core/telegram"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	user      *tele.User
	store     map[string]any
	responded int
}

func newText(id int, userID int64, text string) *fakeContext {
	u := &tele.User{ID: userID}
	return &fakeContext{
		update: tele.Update{ID: id, Message: &tele.Message{Text: text, Sender: u}},
		user:   u,
		store:  map[string]any{},
	}
}

func newCallback(id int, userID int64, unique, data string) *fakeContext {
	u := &tele.User{ID: userID}
	return &fakeContext{
		update: tele.Update{ID: id, Callback: &tele.Callback{Unique: unique, Data: data, Sender: u}},
		user:   u,
		store:  map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(k string) any         { return f.store[k] }
func (f *fakeContext) Set(k string, v any)      { f.store[k] = v }

func (f *fakeContext) Text() string {
	if f.update.Message == nil {
		return ""
	}
	return f.update.Message.Text
}

func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

type fakeFSM struct {
	active  map[int64]bool
	handled []string
}

func (f *fakeFSM) InProgress(userID int64) bool { return f.active[userID] }

func (f *fakeFSM) ManagerHandler(c tele.Context) error {
	f.handled = append(f.handled, c.Text())
	return nil
}

func routeFor(t *testing.T, routes []tg.Route, endpoint any) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %v", endpoint)
	return nil
}

func TestTextRoutesOrder(t *testing.T) {
	var started, unknown []string
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", tg.Command{
		Description: "Menu",
		Aliases:     []string{"menu"},
		Handler: func(c tele.Context) error {
			started = append(started, c.Text())
			return nil
		},
	}))
	fsm := &fakeFSM{active: map[int64]bool{2: true}}
	routes := TextRoutes(fsm, reg, TextOptions{
		UnknownText: func(c tele.Context) error {
			unknown = append(unknown, c.Text())
			return nil
		},
	})
	text := routeFor(t, routes, tele.OnText)

	require.NoError(t, text(newText(1, 1, "menu")))
	require.NoError(t, text(newText(2, 2, "menu")))
	require.NoError(t, text(newText(3, 1, "hello")))

	assert.Equal(t, []string{"menu"}, started)
	assert.Equal(t, []string{"menu"}, fsm.handled)
	assert.Equal(t, []string{"hello"}, unknown)

	doc := routeFor(t, routes, tele.OnDocument)
	require.NoError(t, doc(newText(4, 1, "")))
	require.NoError(t, doc(newText(5, 2, "")))
	assert.Len(t, fsm.handled, 2)
}

func TestCallbackRouteRespondsOnce(t *testing.T) {
	reg := tg.NewRegistry()
	var payloads []string
	require.NoError(t, reg.RegisterCallback("product", func(c tele.Context) error {
		payloads = append(payloads, c.Callback().Data)
		return nil
	}))
	var missing int
	route := CallbackRoute(reg, CallbackOptions{
		NotFound: func(c tele.Context) error {
			missing++
			return c.Respond()
		},
	})
	require.Equal(t, tele.OnCallback, route.Endpoint)

	known := newCallback(10, 1, "product", "3")
	require.NoError(t, route.Handler(known))
	assert.Equal(t, []string{"3"}, payloads)
	assert.Equal(t, 1, known.responded)

	unknown := newCallback(11, 1, "legacy", "x")
	require.NoError(t, route.Handler(unknown))
	assert.Equal(t, 1, missing)
	assert.Equal(t, 1, unknown.responded)
}

func TestCallbackRouteRecoversPanics(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCallback("cart", func(tele.Context) error { panic("boom") }))
	var apologised bool
	route := CallbackRoute(reg, CallbackOptions{OnPanic: func(tele.Context) error {
		apologised = true
		return nil
	}})
	assert.Error(t, route.Handler(newCallback(12, 1, "cart", "")))
	assert.True(t, apologised)
}

func TestCommandRoutesGateAdmin(t *testing.T) {
	reg := tg.NewRegistry()
	var refreshed int
	require.NoError(t, reg.RegisterCommand("/refresh", tg.Command{
		Description: "Refresh",
		AdminOnly:   true,
		Handler:     func(tele.Context) error { refreshed++; return nil },
	}))
	routes := CommandRoutes(reg, CommandRouteOptions{AdminID: 9})
	h := routeFor(t, routes, "/refresh")

	require.NoError(t, h(newText(20, 1, "/refresh")))
	require.NoError(t, h(newText(21, 9, "/refresh")))
	assert.Equal(t, 1, refreshed)
	assert.Nil(t, CommandRoutes(nil, CommandRouteOptions{}))
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "out of stock" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "OUT_OF_STOCK", errorCode(fmt.Errorf("wrap: %w", codedErr{})))
	assert.Equal(t, "TG_403", errorCode(&tele.Error{Code: 403}))
	assert.Equal(t, "PLAINERR", errorCode(&plainErr{}))
	assert.Equal(t, "ERRORSTRING", errorCode(errors.New("x")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "start", normalizeHandlerName("/Start"))
	assert.Equal(t, "add_to_cart", normalizeHandlerName(" add to cart "))
	assert.Equal(t, "unknown", normalizeHandlerName(""))
}
