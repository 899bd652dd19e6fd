package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
)

// seenUpdates remembers update ids for a short window so an update wrapped by
// LoggerMiddleware on several layers is reported once.
type seenUpdates struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[int]time.Time
}

var received = &seenUpdates{ttl: 10 * time.Second, items: make(map[int]time.Time)}

func (s *seenUpdates) firstTime(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, at := range s.items {
		if now.Sub(at) > s.ttl {
			delete(s.items, k)
		}
	}
	if _, ok := s.items[id]; ok {
		return false
	}
	s.items[id] = now
	return true
}

// LoggerMiddleware binds the update's correlation context to c and logs one
// sampled receipt line per update. Free text is never logged verbatim since
// checkout replies carry customer contact data. Only commands are logged.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() && received.firstTime(upd.ID, time.Now()) {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user := c.Sender(); user != nil && user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
			switch {
			case upd.Callback != nil:
				key, payload := callbacks.Parts(upd.Callback)
				attrs = append(attrs,
					slog.String("cb_key", logger.SanitizeLimit(key, 64)),
					slog.String("payload", logger.SanitizeLimit(payload, 64)),
				)
			case upd.Message != nil:
				text := c.Text()
				if strings.HasPrefix(text, "/") {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, 64)))
				} else {
					attrs = append(attrs, slog.Int("text_len", len([]rune(text))))
				}
			}
			logger.Debug(ctx, "tg", "update.received", attrs...)
		}
		return next(c)
	}
}
