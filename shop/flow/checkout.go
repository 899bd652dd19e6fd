package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/shop/action"
	"github.com/m3rciful/shopbot/shop/cart"
	"github.com/m3rciful/shopbot/shop/order"
	"github.com/m3rciful/shopbot/shop/session"
)

func (c *Controller) beginCheckout(s *session.Session) Response {
	if s.Cart.IsEmpty() {
		s.State = session.StateMenu
		return respond(withBack(textCartEmpty))
	}
	s.Order = order.Draft{}
	s.State = session.StateCheckoutName
	return respond(withBack(textAskName))
}

// collect stores one checkout field per message: name, phone, address, email.
func (c *Controller) collect(ctx context.Context, s *session.Session, text string) (Response, error) {
	if !s.State.AwaitsText() {
		return Response{}, nil
	}
	skip := s.State == session.StateCheckoutEmail && text == c.opts.SkipCommand
	if strings.HasPrefix(text, "/") && !skip {
		return Response{}, nil
	}

	switch s.State {
	case session.StateCheckoutName:
		s.Order.Name = text
		s.State = session.StateCheckoutPhone
		return respond(withBack(textAskPhone)), nil
	case session.StateCheckoutPhone:
		s.Order.Phone = text
		s.State = session.StateCheckoutAddress
		return respond(withBack(textAskAddress)), nil
	case session.StateCheckoutAddress:
		s.Order.Address = text
		s.State = session.StateCheckoutEmail
		return respond(withBack(fmt.Sprintf(textAskEmailFmt, c.opts.SkipCommand))), nil
	default:
		if skip {
			s.Order.Email = ""
		} else {
			s.Order.Email = text
		}
		return c.summary(ctx, s)
	}
}

func (c *Controller) summary(ctx context.Context, s *session.Session) (Response, error) {
	sum, err := cart.Price(ctx, c.catalog, s.Cart)
	if err != nil {
		return Response{}, err
	}
	s.State = session.StateConfirmOrder
	return respond(Message{
		Text: order.Receipt(textOrderTitle, sum.Lines, sum.Total, s.Order, c.opts.Currency),
		Buttons: []Button{
			simpleBtn(labelConfirm, action.KindConfirmOrder),
			simpleBtn(labelCancel, action.KindCancelOrder),
			simpleBtn(labelBackToMenu, action.KindBackToMenu),
		},
	}), nil
}

// confirm finalizes the order and hands it to the notifier. A delivery failure
// keeps the cart and the draft so the customer can try again.
func (c *Controller) confirm(ctx context.Context, s *session.Session) (Response, error) {
	sum, err := cart.Price(ctx, c.catalog, s.Cart)
	if err != nil {
		return Response{}, err
	}
	o, err := order.Finalize(c.opts.OrderID(), c.opts.Now(), sum, s.Order)
	if errors.Is(err, order.ErrNoItems) {
		s.State = session.StateMenu
		s.Order = order.Draft{}
		return respond(withBack(textCartEmpty)), nil
	}
	if err != nil {
		return Response{}, err
	}

	if err := c.notifier.Send(ctx, o); err != nil {
		logger.Error(ctx, "service.orders", "order.notify",
			slog.String("status", "fail"),
			slog.String("order_id", o.ID),
			slog.Int("items", len(o.Lines)),
			slog.String("total", o.Total.String()),
			slog.String("err", err.Error()),
		)
		s.State = session.StateMenu
		return respond(withBack(textOrderFailed)), nil
	}

	logger.Info(ctx, "service.orders", "order.notify",
		slog.String("status", "ok"),
		slog.String("order_id", o.ID),
		slog.Int("items", len(o.Lines)),
		slog.String("total", o.Total.String()),
	)
	s.Cart.Clear()
	placed := Message{Text: textOrderPlaced}
	return Response{Messages: append([]Message{placed}, c.backToMenu(ctx, s).Messages...)}, nil
}

func (c *Controller) cancel(ctx context.Context, s *session.Session) Response {
	if c.opts.ClearCartOnCancel {
		s.Cart.Clear()
	}
	logger.Info(ctx, "service.orders", "order.cancel",
		slog.String("status", "cancelled"),
		slog.Bool("cart_cleared", c.opts.ClearCartOnCancel),
	)
	cancelled := Message{Text: textOrderCancelled}
	return Response{Messages: append([]Message{cancelled}, c.backToMenu(ctx, s).Messages...)}
}
