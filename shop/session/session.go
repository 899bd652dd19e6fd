// Package session stores the explicit per-user conversation record.
package session

import (
	"context"

	"github.com/m3rciful/shopbot/shop/cart"
	"github.com/m3rciful/shopbot/shop/order"
)

// State is a step of the conversation state machine.
type State string

const (
	StateMenu            State = "menu"
	StateProductList     State = "product_list"
	StateProductDetail   State = "product_detail"
	StateCartAdded       State = "cart_added"
	StateCheckoutName    State = "checkout_name"
	StateCheckoutPhone   State = "checkout_phone"
	StateCheckoutAddress State = "checkout_address"
	StateCheckoutEmail   State = "checkout_email"
	StateConfirmOrder    State = "confirm_order"
)

// InCheckout reports whether the state belongs to the checkout sub-flow.
func (s State) InCheckout() bool {
	switch s {
	case StateCheckoutName, StateCheckoutPhone, StateCheckoutAddress, StateCheckoutEmail, StateConfirmOrder:
		return true
	}
	return false
}

// AwaitsText reports whether the state collects a free-text field.
func (s State) AwaitsText() bool {
	return s.InCheckout() && s != StateConfirmOrder
}

// Session is owned by exactly one user.
type Session struct {
	State    State       `json:"state"`
	Category string      `json:"category,omitempty"`
	Cart     cart.Cart   `json:"cart"`
	Order    order.Draft `json:"order"`
}

// New returns an empty session at the main menu.
func New() *Session {
	return &Session{State: StateMenu}
}

// Clone returns a deep copy so callers can mutate it and discard the result on failure.
func (s *Session) Clone() *Session {
	if s == nil {
		return New()
	}
	cp := *s
	cp.Cart = s.Cart.Clone()
	if cp.State == "" {
		cp.State = StateMenu
	}
	return &cp
}

// Store loads and saves sessions by Telegram user id.
type Store interface {
	// Load returns the stored session or a new one when none exists.
	Load(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, userID int64, s *Session) error
}
