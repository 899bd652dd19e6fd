package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound overrides the registry's handler for unknown uniques.
	NotFound tele.HandlerFunc
	// OnPanic answers the user after a recovered panic.
	OnPanic tele.HandlerFunc
}

// CallbackRoute dispatches every callback query through the registry by its
// unique; the payload is left for the handler to parse. Known callbacks are
// acknowledged after the handler returns so the button spinner stops.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.Parts(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.Callback(key)
		if !ok {
			if opts.NotFound != nil {
				h = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "skip", "", func() error {
				if h == nil {
					return c.Respond()
				}
				return h(c)
			}, extras...)
		}

		return handleWithSummary(c, name, start, "", "", func() error {
			err := h(c)
			_ = c.Respond()
			return err
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverWith(opts.OnPanic)(middleware.LoggerMiddleware(handler)),
	}
}
