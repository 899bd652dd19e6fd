package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
)

const contextKey = "update_ctx"

// StoreContext caches ctx on c for the rest of the update.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(contextKey, ctx)
	}
}

// ContextFrom returns the context cached on c, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

func updateIDs(c tele.Context) (update int, user, chat int64) {
	update = c.Update().ID
	if u := c.Sender(); u != nil {
		user = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chat = ch.ID
	}
	return update, user, chat
}

// BuildContext returns the update's correlation context, creating and caching
// it on first use. It carries the request id, update/user/chat ids and the
// "tg" component logger; the chat id also selects the sender lane.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	update, user, chat := updateIDs(c)
	ctx := logger.WithRID(context.Background(), logger.BuildRID(update, chat, user))
	ctx = logger.WithUpdateMeta(ctx, update, user, chat)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update context with the serving handler's name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.HandlerFrom(ctx) == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
