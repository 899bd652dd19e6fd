// Package notify forwards finalized orders to the shop administrator.
package notify

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/shop/order"
)

// TimeLayout is used for the order timestamp in notifications.
const TimeLayout = "2006-01-02 15:04:05"

// ErrNotBound is returned when the notifier is used before a bot is attached.
var ErrNotBound = errors.New("notify: telegram sender not bound")

// Sender is the subset of *tele.Bot needed to deliver a message.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Format renders the administrator message for an order.
func Format(o order.Finalized, currency string) string {
	title := fmt.Sprintf("📦 *New order (ID: %s)* (%s):", o.ID, o.CreatedAt.Format(TimeLayout))
	return order.Receipt(title, o.Lines, o.Total, o.Customer, currency)
}

// Telegram delivers orders to a single fixed chat. Delivery is attempted once.
type Telegram struct {
	chatID   int64
	currency string
	sender   Sender
}

// NewTelegram creates a notifier for the given admin chat. The sender may be
// attached later with Bind once the bot is running.
func NewTelegram(chatID int64, currency string, sender Sender) *Telegram {
	return &Telegram{chatID: chatID, currency: currency, sender: sender}
}

// Bind attaches the sender. It must be called before the bot starts handling updates.
func (t *Telegram) Bind(sender Sender) {
	t.sender = sender
}

// Send implements flow.Notifier.
func (t *Telegram) Send(_ context.Context, o order.Finalized) error {
	if t.sender == nil {
		return ErrNotBound
	}
	_, err := t.sender.Send(tele.ChatID(t.chatID), Format(o, t.currency), &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	if err != nil {
		return fmt.Errorf("notify admin %d: %w", t.chatID, err)
	}
	return nil
}
