// Package flow implements the storefront conversation: a finite-state machine over
// the catalog, the session cart and the checkout sub-flow.
package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/shop/action"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/order"
	"github.com/m3rciful/shopbot/shop/session"
)

const (
	// CommandStart returns to the main menu from any state.
	CommandStart = "/start"
	// CommandSkip skips the optional email step.
	CommandSkip = "/skip"
)

// Notifier delivers a finalized order to the administrator.
type Notifier interface {
	Send(ctx context.Context, o order.Finalized) error
}

// Options tune rendering and checkout behaviour.
type Options struct {
	// Currency is appended to every amount.
	Currency string
	// Suggestions is the number of cross-sell products shown on a product page.
	Suggestions int
	// ClearCartOnCancel empties the cart when the customer cancels at confirmation.
	ClearCartOnCancel bool
	// SkipCommand is the directive that leaves the email empty.
	SkipCommand string

	Now     func() time.Time
	OrderID func() string
}

// Controller maps user actions to state transitions and rendered responses.
// It holds no per-user state: every call receives the session it may mutate.
type Controller struct {
	catalog  catalog.Store
	ranking  catalog.Ranking
	notifier Notifier
	opts     Options
}

// New builds a Controller, filling zero options with defaults.
func New(store catalog.Store, ranking catalog.Ranking, notifier Notifier, opts Options) *Controller {
	if opts.Suggestions <= 0 {
		opts.Suggestions = 2
	}
	if opts.SkipCommand == "" {
		opts.SkipCommand = CommandSkip
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OrderID == nil {
		opts.OrderID = order.NewID
	}
	return &Controller{
		catalog:  store,
		ranking:  ranking,
		notifier: notifier,
		opts:     opts,
	}
}

// Start renders the main menu for a new or resumed conversation.
func (c *Controller) Start(ctx context.Context, s *session.Session) Response {
	return c.backToMenu(ctx, s)
}

// HandleAction applies a button press. Actions that are not valid in the current
// state are ignored and yield an empty response.
//
// s is mutated in place even when an error is returned; callers that need
// all-or-nothing semantics pass a copy and keep it only on success.
func (c *Controller) HandleAction(ctx context.Context, s *session.Session, a action.Action) (Response, error) {
	from := s.State
	resp, err := c.dispatch(ctx, s, a)
	logger.Debug(ctx, "flow", "flow.action",
		slog.String("status", logger.Status(err)),
		slog.String("op", a.Token()),
		slog.String("from", string(from)),
		slog.String("to", string(s.State)),
		slog.Int("messages", len(resp.Messages)),
	)
	return resp, err
}

func (c *Controller) dispatch(ctx context.Context, s *session.Session, a action.Action) (Response, error) {
	if a.Kind == action.KindBackToMenu {
		return c.backToMenu(ctx, s), nil
	}

	switch s.State {
	case session.StateMenu, "":
		switch a.Kind {
		case action.KindProducts:
			return c.showCategories(ctx, s)
		case action.KindPromotions:
			return respond(withBack(textPromotions)), nil
		case action.KindContact:
			return respond(withBack(textContact)), nil
		case action.KindCart:
			return c.showCart(ctx, s)
		case action.KindCategory:
			return c.selectCategory(ctx, s, a.Category)
		case action.KindCheckout:
			return c.beginCheckout(s), nil
		}
	case session.StateProductList:
		switch a.Kind {
		case action.KindProduct:
			return c.showProduct(ctx, s, a.ProductID)
		case action.KindBackToProducts:
			return c.showCurrentCategory(ctx, s)
		case action.KindProducts:
			return c.showCategories(ctx, s)
		}
	case session.StateProductDetail:
		switch a.Kind {
		case action.KindAddToCart:
			return c.addToCart(ctx, s, a.ProductID)
		case action.KindBackToProducts:
			return c.showCurrentCategory(ctx, s)
		}
	case session.StateCartAdded:
		switch a.Kind {
		case action.KindAddToCart:
			return c.addToCart(ctx, s, a.ProductID)
		case action.KindBackToProducts:
			return c.showCurrentCategory(ctx, s)
		case action.KindCart:
			return c.showCart(ctx, s)
		}
	case session.StateConfirmOrder:
		switch a.Kind {
		case action.KindConfirmOrder:
			return c.confirm(ctx, s)
		case action.KindCancelOrder:
			return c.cancel(ctx, s), nil
		}
	}
	return Response{}, nil
}

// HandleText applies a free-text message or a text command.
// Outside the checkout sub-flow plain text is ignored.
func (c *Controller) HandleText(ctx context.Context, s *session.Session, text string) (Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Response{}, nil
	}
	if text == CommandStart {
		return c.backToMenu(ctx, s), nil
	}
	from := s.State
	resp, err := c.collect(ctx, s, text)
	logger.Debug(ctx, "flow", "flow.text",
		slog.String("status", logger.Status(err)),
		slog.String("from", string(from)),
		slog.String("to", string(s.State)),
		slog.Int("messages", len(resp.Messages)),
	)
	return resp, err
}

func (c *Controller) backToMenu(ctx context.Context, s *session.Session) Response {
	if s.State.InCheckout() && !s.Order.IsZero() {
		logger.Debug(ctx, "flow", "checkout.abandon",
			slog.String("status", "cancelled"),
			slog.String("from", string(s.State)),
		)
	}
	s.State = session.StateMenu
	s.Category = ""
	s.Order = order.Draft{}
	return respond(mainMenu())
}

func mainMenu() Message {
	return Message{
		Text: textWelcome,
		Buttons: []Button{
			simpleBtn(labelProducts, action.KindProducts),
			simpleBtn(labelPromotions, action.KindPromotions),
			simpleBtn(labelContact, action.KindContact),
			simpleBtn(labelCart, action.KindCart),
		},
	}
}

func withBack(text string) Message {
	return Message{Text: text, Buttons: []Button{simpleBtn(labelBackToMenu, action.KindBackToMenu)}}
}
