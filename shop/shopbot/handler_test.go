package shopbot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/shop/action"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/flow"
	"github.com/m3rciful/shopbot/shop/order"
	"github.com/m3rciful/shopbot/shop/session"
)

type sentMessage struct {
	what any
	opts []any
}

// fakeContext implements the parts of tele.Context the handler touches.
type fakeContext struct {
	tele.Context
	user      *tele.User
	text      string
	cb        *tele.Callback
	store     map[string]any
	sent      []sentMessage
	responded []*tele.CallbackResponse
	photoErr  error
}

func newContext(userID int64) *fakeContext {
	return &fakeContext{user: &tele.User{ID: userID}, store: map[string]any{}}
}

func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Get(k string) any         { return f.store[k] }
func (f *fakeContext) Set(k string, v any)      { f.store[k] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	if _, ok := what.(*tele.Photo); ok && f.photoErr != nil {
		return f.photoErr
	}
	f.sent = append(f.sent, sentMessage{what: what, opts: opts})
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responded = append(f.responded, resp...)
	return nil
}

func (f *fakeContext) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	switch v := f.sent[len(f.sent)-1].what.(type) {
	case string:
		return v
	case *tele.Photo:
		return v.Caption
	}
	t.Fatalf("unexpected message %T", f.sent[len(f.sent)-1].what)
	return ""
}

type okNotifier struct{ sent []order.Finalized }

func (n *okNotifier) Send(_ context.Context, o order.Finalized) error {
	n.sent = append(n.sent, o)
	return nil
}

// flakyCatalog fails product lookups while broken is set.
type flakyCatalog struct {
	catalog.Store
	broken bool
}

func (f *flakyCatalog) GetProductByID(ctx context.Context, id int64) (catalog.Product, error) {
	if f.broken {
		return catalog.Product{}, errors.New("catalog offline")
	}
	return f.Store.GetProductByID(ctx, id)
}

type fixture struct {
	h        *Handler
	sessions session.Store
	catalog  *flakyCatalog
	notifier *okNotifier
}

func newFixture() fixture {
	mem := catalog.NewMemoryStore([]string{"Skincare"}, []catalog.Product{
		{ID: 1, Category: "Skincare", Name: "Cream", Price: decimal.NewFromInt(50), Stock: 3, Image: "https://img.example/c.jpg"},
	})
	cat := &flakyCatalog{Store: mem}
	n := &okNotifier{}
	ranking := catalog.NewMinIDRanking(mem, 0)
	ctrl := flow.New(cat, ranking, n, flow.Options{Currency: "RON"})
	sessions := session.NewMemoryStore()
	return fixture{h: NewHandler(ctrl, sessions, ranking), sessions: sessions, catalog: cat, notifier: n}
}

func (fx fixture) press(t *testing.T, c *fakeContext, a action.Action) error {
	t.Helper()
	c.cb = &tele.Callback{Unique: string(a.Kind), Data: a.Payload()}
	return fx.h.OnCallback(c)
}

func (fx fixture) load(t *testing.T, userID int64) *session.Session {
	t.Helper()
	s, err := fx.sessions.Load(context.Background(), userID)
	require.NoError(t, err)
	return s
}

func TestOnStartSendsMenuWithKeyboard(t *testing.T) {
	fx := newFixture()
	c := newContext(10)

	require.NoError(t, fx.h.OnStart(c))
	require.Len(t, c.sent, 1)
	opts := c.sent[0].opts[0].(*tele.SendOptions)
	assert.Equal(t, tele.ModeMarkdown, opts.ParseMode)
	require.Len(t, opts.ReplyMarkup.InlineKeyboard, 4)
	assert.Equal(t, "products", opts.ReplyMarkup.InlineKeyboard[0][0].Unique)
}

func TestCallbacksDriveTheFlowAndPersistSession(t *testing.T) {
	fx := newFixture()
	c := newContext(11)

	require.NoError(t, fx.press(t, c, action.Simple(action.KindProducts)))
	c.cb = &tele.Callback{Data: "\fcategory|Skincare"}
	require.NoError(t, fx.h.OnCallback(c))
	assert.Equal(t, session.StateProductList, fx.load(t, 11).State)

	require.NoError(t, fx.press(t, c, action.Product(1)))
	photo, ok := c.sent[len(c.sent)-2].what.(*tele.Photo)
	require.True(t, ok)
	assert.Contains(t, photo.Caption, "*Cream*")

	require.NoError(t, fx.press(t, c, action.AddToCart(1)))
	require.NoError(t, fx.press(t, c, action.AddToCart(1)))
	s := fx.load(t, 11)
	assert.Equal(t, session.StateCartAdded, s.State)
	assert.Equal(t, 2, s.Cart.Quantity(1))
}

func TestPhotoFailureFallsBackToText(t *testing.T) {
	fx := newFixture()
	c := newContext(12)
	c.photoErr = errors.New("wrong file identifier")
	require.NoError(t, fx.sessions.Save(context.Background(), 12, &session.Session{State: session.StateProductList, Category: "Skincare"}))

	require.NoError(t, fx.press(t, c, action.Product(1)))
	require.Len(t, c.sent, 2)
	assert.IsType(t, "", c.sent[0].what)
	assert.Contains(t, c.sent[0].what, "*Cream*")
}

func TestFailedStepKeepsStoredSession(t *testing.T) {
	fx := newFixture()
	c := newContext(13)
	before := &session.Session{State: session.StateProductDetail, Category: "Skincare"}
	require.NoError(t, fx.sessions.Save(context.Background(), 13, before))

	fx.catalog.broken = true
	err := fx.press(t, c, action.AddToCart(1))
	require.Error(t, err)
	assert.Equal(t, textError, c.lastText(t))

	after := fx.load(t, 13)
	assert.Equal(t, session.StateProductDetail, after.State)
	assert.True(t, after.Cart.IsEmpty())
}

func TestCheckoutTextRouting(t *testing.T) {
	fx := newFixture()
	c := newContext(14)
	require.NoError(t, fx.sessions.Save(context.Background(), 14, &session.Session{State: session.StateMenu}))
	assert.False(t, fx.h.InProgress(14))

	c.text = "hello"
	require.NoError(t, fx.h.OnText(c))
	assert.Empty(t, c.sent)

	s := fx.load(t, 14)
	s.Cart.Items = map[int64]int{1: 1}
	require.NoError(t, fx.sessions.Save(context.Background(), 14, s))
	require.NoError(t, fx.press(t, c, action.Simple(action.KindCheckout)))
	assert.True(t, fx.h.InProgress(14))

	for _, field := range []string{"Ana", "0700000000", "Str. X"} {
		c.text = field
		require.NoError(t, fx.h.ManagerHandler(c))
	}
	require.NoError(t, fx.h.OnSkip(c))
	assert.Equal(t, session.StateConfirmOrder, fx.load(t, 14).State)
	assert.Contains(t, c.lastText(t), "Email: not provided")

	require.NoError(t, fx.press(t, c, action.Simple(action.KindConfirmOrder)))
	require.Len(t, fx.notifier.sent, 1)
	s = fx.load(t, 14)
	assert.True(t, s.Cart.IsEmpty())
	assert.Equal(t, session.StateMenu, s.State)
	assert.False(t, fx.h.InProgress(14))
}

func TestUndecodableCallbackIsDropped(t *testing.T) {
	fx := newFixture()
	c := newContext(15)
	c.cb = &tele.Callback{Unique: "product", Data: "not-a-number"}
	require.NoError(t, fx.h.OnCallback(c))
	assert.Empty(t, c.sent)

	require.NoError(t, fx.h.UnknownCallback()(c))
	require.Len(t, c.responded, 1)
	assert.Equal(t, textUnsupported, c.responded[0].Text)
}

func TestOnRefreshAndRateLimit(t *testing.T) {
	fx := newFixture()
	c := newContext(16)
	require.NoError(t, fx.h.OnRefresh(c))
	assert.Equal(t, textRefreshed, c.lastText(t))

	require.NoError(t, fx.h.OnRateLimited(c))
	assert.Empty(t, c.responded)
	c.cb = &tele.Callback{Unique: "products"}
	require.NoError(t, fx.h.OnRateLimited(c))
	assert.Len(t, c.responded, 1)
}

func TestMarkupCarriesKindAndPayload(t *testing.T) {
	m := Markup([]flow.Button{
		{Label: "Skincare", Action: action.Category("Skincare")},
		{Label: "Add", Action: action.AddToCart(4)},
		{Label: "Back", Action: action.Simple(action.KindBackToMenu)},
	})
	require.Len(t, m.InlineKeyboard, 3)
	assert.Equal(t, "category", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "Skincare", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "add_to_cart", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "4", m.InlineKeyboard[1][0].Data)
	assert.Equal(t, "back_to_menu", m.InlineKeyboard[2][0].Unique)
}

func TestUserLocksSerializeAndForget(t *testing.T) {
	locks := userLocks{m: make(map[int64]*userLock)}
	var (
		wg      sync.WaitGroup
		counter int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(7)
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Empty(t, locks.m)
}
