package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/shop/cart"
)

// NotProvided replaces an empty email in rendered orders.
const NotProvided = "not provided"

// Money formats an amount with its currency, e.g. "89.9 RON".
func Money(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.String()
	}
	return amount.String() + " " + currency
}

// Lines renders "name xQty: subtotal" rows followed by the total, in Telegram Markdown.
func Lines(lines []cart.Line, total decimal.Decimal, currency string) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s x%d: %s\n", format.MD(l.Product.Name), l.Quantity, Money(l.Subtotal, currency))
	}
	fmt.Fprintf(&b, "\n*Total*: %s", Money(total, currency))
	return b.String()
}

// Customer renders the collected checkout fields.
func Customer(d Draft) string {
	email := d.Email
	if email == "" {
		email = NotProvided
	}
	return fmt.Sprintf("*Customer details*:\nName: %s\nPhone: %s\nAddress: %s\nEmail: %s",
		format.MD(d.Name), format.MD(d.Phone), format.MD(d.Address), format.MD(email))
}

// Receipt renders a titled order block: lines, total and customer details.
func Receipt(title string, lines []cart.Line, total decimal.Decimal, d Draft, currency string) string {
	return title + "\n" + Lines(lines, total, currency) + "\n\n" + Customer(d)
}
