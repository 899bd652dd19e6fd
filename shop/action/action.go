// Package action defines the user actions understood by the conversation flow.
// Actions are parsed once at the transport boundary into a kind plus a typed payload.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknown is returned for tokens that do not name a known action.
var ErrUnknown = errors.New("action: unknown token")

// Kind identifies an action.
type Kind string

const (
	KindProducts       Kind = "products"
	KindPromotions     Kind = "promotions"
	KindContact        Kind = "contact"
	KindCart           Kind = "cart"
	KindCheckout       Kind = "checkout"
	KindBackToMenu     Kind = "back_to_menu"
	KindBackToProducts Kind = "back_to_products"
	KindConfirmOrder   Kind = "confirm_order"
	KindCancelOrder    Kind = "cancel_order"
	KindCategory       Kind = "category"
	KindProduct        Kind = "product"
	KindAddToCart      Kind = "add_to_cart"
)

var simpleKinds = []Kind{
	KindProducts, KindPromotions, KindContact, KindCart, KindCheckout,
	KindBackToMenu, KindBackToProducts, KindConfirmOrder, KindCancelOrder,
}

// Kinds lists every action kind, e.g. for registering callback handlers.
func Kinds() []Kind {
	return append(append([]Kind(nil), simpleKinds...), KindCategory, KindProduct, KindAddToCart)
}

// Action is a parsed user action. Category is set for KindCategory,
// ProductID for KindProduct and KindAddToCart.
type Action struct {
	Kind      Kind
	Category  string
	ProductID int64
}

// Simple builds a payload-less action.
func Simple(k Kind) Action { return Action{Kind: k} }

// Category selects a category by name.
func Category(name string) Action { return Action{Kind: KindCategory, Category: name} }

// Product opens a product detail view.
func Product(id int64) Action { return Action{Kind: KindProduct, ProductID: id} }

// AddToCart adds one unit of a product.
func AddToCart(id int64) Action { return Action{Kind: KindAddToCart, ProductID: id} }

// Payload returns the encoded payload, empty for simple kinds.
func (a Action) Payload() string {
	switch a.Kind {
	case KindCategory:
		return a.Category
	case KindProduct, KindAddToCart:
		return strconv.FormatInt(a.ProductID, 10)
	}
	return ""
}

// Token renders the action as a flat token such as "category_Skincare" or "add_to_cart_3".
func (a Action) Token() string {
	if p := a.Payload(); p != "" || a.Kind == KindCategory {
		return string(a.Kind) + "_" + p
	}
	return string(a.Kind)
}

func (a Action) String() string { return a.Token() }

// Parse builds an action from a kind and its payload.
func Parse(kind, payload string) (Action, error) {
	k := Kind(strings.TrimSpace(kind))
	for _, s := range simpleKinds {
		if k == s {
			return Simple(k), nil
		}
	}
	switch k {
	case KindCategory:
		if payload == "" {
			return Action{}, fmt.Errorf("%w: empty category", ErrUnknown)
		}
		return Category(payload), nil
	case KindProduct, KindAddToCart:
		id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
		if err != nil || id <= 0 {
			return Action{}, fmt.Errorf("%w: bad product id %q", ErrUnknown, payload)
		}
		return Action{Kind: k, ProductID: id}, nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknown, kind)
}

// ParseToken parses a flat token produced by Token.
func ParseToken(token string) (Action, error) {
	token = strings.TrimSpace(token)
	for _, s := range simpleKinds {
		if token == string(s) {
			return Simple(s), nil
		}
	}
	for _, k := range []Kind{KindAddToCart, KindCategory, KindProduct} {
		if rest, ok := strings.CutPrefix(token, string(k)+"_"); ok {
			return Parse(string(k), rest)
		}
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknown, token)
}
