package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
)

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return RecoverWith(nil)(next)
}

// RecoverWith catches panics, logs them with the triggering update and lets
// onPanic answer the user. The recovered panic is returned as an error.
func RecoverWith(onPanic tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				attrs := []slog.Attr{
					slog.String("status", "fail"),
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				}
				if cb := c.Callback(); cb != nil {
					key, payload := callbacks.Parts(cb)
					attrs = append(attrs, slog.String("cb_key", key), slog.String("payload", payload))
				} else if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
				logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic", attrs...)
				if onPanic != nil {
					_ = onPanic(c)
				}
				err = fmt.Errorf("panic: %v", r)
			}()
			return next(c)
		}
	}
}
