// Package helpers holds the per-update glue between handlers and the
// outgoing message dispatcher.
package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/sender"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes sends through d. A nil d makes sends synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// enqueue hands run to the dispatcher lane of the update's chat. When the lane
// cannot take it the send runs inline so the reply is not lost.
func enqueue(c tele.Context, action string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, "sendMessage", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("status", "skip"),
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends plain text to the update's chat.
func SendText(c tele.Context, text string, opts ...any) error {
	return enqueue(c, "send.text", func() error { return c.Send(text, opts...) })
}

// SendBatch runs steps in order inside one dispatcher job so the messages of
// a single reply are never reordered. A retried job resumes at the first step
// that has not succeeded.
func SendBatch(c tele.Context, action string, steps ...func() error) error {
	if len(steps) == 0 {
		return nil
	}
	next := 0
	return enqueue(c, action, func() error {
		for ; next < len(steps); next++ {
			if err := steps[next](); err != nil {
				return err
			}
		}
		return nil
	})
}
