package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/shop/action"
	"github.com/m3rciful/shopbot/shop/cart"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/order"
	"github.com/m3rciful/shopbot/shop/session"
)

func (c *Controller) showCategories(ctx context.Context, s *session.Session) (Response, error) {
	names, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return Response{}, err
	}
	buttons := make([]Button, 0, len(names)+1)
	for _, name := range names {
		buttons = append(buttons, btn(name, action.Category(name)))
	}
	buttons = append(buttons, simpleBtn(labelBackToMenu, action.KindBackToMenu))
	s.State = session.StateMenu
	return respond(Message{Text: textChooseCategory, Buttons: buttons}), nil
}

func (c *Controller) selectCategory(ctx context.Context, s *session.Session, name string) (Response, error) {
	ok, err := catalog.HasCategory(ctx, c.catalog, name)
	if err != nil {
		return Response{}, err
	}
	if !ok {
		logger.Debug(ctx, "flow", "category.unknown",
			slog.String("status", "skip"),
			slog.String("category", name),
		)
		return Response{}, nil
	}
	s.Category = name
	return c.renderCategory(ctx, s)
}

// showCurrentCategory re-renders the remembered category, falling back to the
// category chooser when it is gone from the catalog.
func (c *Controller) showCurrentCategory(ctx context.Context, s *session.Session) (Response, error) {
	ok, err := catalog.HasCategory(ctx, c.catalog, s.Category)
	if err != nil {
		return Response{}, err
	}
	if !ok {
		s.Category = ""
		return c.showCategories(ctx, s)
	}
	return c.renderCategory(ctx, s)
}

func (c *Controller) renderCategory(ctx context.Context, s *session.Session) (Response, error) {
	products, err := c.catalog.ListProductsByCategory(ctx, s.Category)
	if err != nil {
		return Response{}, err
	}
	buttons := make([]Button, 0, len(products)+2)
	for _, p := range products {
		buttons = append(buttons, btn(p.Name, action.Product(p.ID)))
	}
	buttons = append(buttons,
		simpleBtn(labelBackCategories, action.KindProducts),
		simpleBtn(labelBackToMenu, action.KindBackToMenu),
	)
	text := fmt.Sprintf(textCategoryFmt, format.MD(s.Category))
	if len(products) == 0 {
		text = fmt.Sprintf(textCategoryEmpty, format.MD(s.Category))
	}
	s.State = session.StateProductList
	return respond(Message{Text: text, Buttons: buttons}), nil
}

func (c *Controller) showProduct(ctx context.Context, s *session.Session, id int64) (Response, error) {
	p, err := c.catalog.GetProductByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return respond(Message{
			Text: textGone,
			Buttons: []Button{
				simpleBtn(labelBackCategory, action.KindBackToProducts),
				simpleBtn(labelBackToMenu, action.KindBackToMenu),
			},
		}), nil
	}
	if err != nil {
		return Response{}, err
	}

	detail := Message{Text: c.describe(p), Photo: p.Image}
	next := Message{
		Text: textWhatNext,
		Buttons: []Button{
			btn(labelAddToCart, action.AddToCart(p.ID)),
			simpleBtn(labelBackCategory, action.KindBackToProducts),
			simpleBtn(labelBackToMenu, action.KindBackToMenu),
		},
	}
	if suggestions := c.suggest(ctx, p.ID); len(suggestions) > 0 {
		var b strings.Builder
		b.WriteString(textSuggestions)
		for _, sp := range suggestions {
			fmt.Fprintf(&b, "\n- %s (%s)", format.MD(sp.Name), order.Money(sp.Price, c.opts.Currency))
		}
		next.Text = b.String()
	}
	s.State = session.StateProductDetail
	return respond(detail, next), nil
}

func (c *Controller) describe(p catalog.Product) string {
	return fmt.Sprintf("*%s*\nPrice: %s\nDescription: %s\nStock: %d pcs.",
		format.MD(p.Name), order.Money(p.Price, c.opts.Currency), format.MD(p.Description), p.Stock)
}

// suggest picks best sellers other than the current product. Ranking failures
// only cost the suggestions.
func (c *Controller) suggest(ctx context.Context, current int64) []catalog.Product {
	if c.ranking == nil {
		return nil
	}
	ids, err := c.ranking.BestSellers(ctx)
	if err != nil {
		logger.Warn(ctx, "flow", "suggestions.fail",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil
	}
	var out []catalog.Product
	for _, id := range ids {
		if len(out) == c.opts.Suggestions {
			break
		}
		if id == current {
			continue
		}
		p, err := c.catalog.GetProductByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Controller) addToCart(ctx context.Context, s *session.Session, id int64) (Response, error) {
	p, err := s.Cart.AddOne(ctx, c.catalog, id)
	var confirmation string
	switch {
	case err == nil:
		confirmation = fmt.Sprintf(textAddedFmt, format.MD(p.Name))
		logger.Info(ctx, "service.cart", "cart.add",
			slog.String("status", "ok"),
			slog.Int64("product_id", id),
			slog.Int("count", s.Cart.Quantity(id)),
		)
	case errors.Is(err, cart.ErrOutOfStock), errors.Is(err, cart.ErrUnknownProduct):
		confirmation = textOutOfStock
		logger.Info(ctx, "service.cart", "cart.add",
			slog.String("status", "skip"),
			slog.Int64("product_id", id),
			slog.String("cause", err.Error()),
		)
	default:
		return Response{}, err
	}
	s.State = session.StateCartAdded
	return respond(
		Message{Text: confirmation},
		Message{
			Text: textWhatNext,
			Buttons: []Button{
				simpleBtn(labelViewCart, action.KindCart),
				simpleBtn(labelBackCategory, action.KindBackToProducts),
				simpleBtn(labelBackToMenu, action.KindBackToMenu),
			},
		},
	), nil
}

func (c *Controller) showCart(ctx context.Context, s *session.Session) (Response, error) {
	s.State = session.StateMenu
	if s.Cart.IsEmpty() {
		return respond(withBack(textCartEmpty)), nil
	}
	sum, err := cart.Price(ctx, c.catalog, s.Cart)
	if err != nil {
		return Response{}, err
	}
	if len(sum.Lines) == 0 {
		return respond(withBack(textCartEmpty)), nil
	}
	return respond(Message{
		Text: textCartTitle + "\n" + order.Lines(sum.Lines, sum.Total, c.opts.Currency),
		Buttons: []Button{
			simpleBtn(labelCheckout, action.KindCheckout),
			simpleBtn(labelBackToMenu, action.KindBackToMenu),
		},
	}), nil
}
