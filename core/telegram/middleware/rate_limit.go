package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds ("message", "callback") that are never limited.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	now       func() time.Time
}

// UpdateKind names the update for exclusion lists.
func UpdateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Message != nil:
		return "message"
	case u.Query != nil:
		return "inline_query"
	default:
		return "other"
	}
}

type lastSeen struct {
	mu      sync.Mutex
	seen    map[int64]time.Time
	pruneAt time.Time
}

// allow records now for user unless the previous update is closer than gap.
// Entries older than gap are dropped at most once per gap.
func (l *lastSeen) allow(user int64, now time.Time, gap time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.After(l.pruneAt) {
		for id, at := range l.seen {
			if now.Sub(at) >= gap {
				delete(l.seen, id)
			}
		}
		l.pruneAt = now.Add(gap)
	}
	if at, ok := l.seen[user]; ok && now.Sub(at) < gap {
		return false
	}
	l.seen[user] = now
	return true
}

// RateLimitMiddleware drops updates that arrive faster than Interval per user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	state := &lastSeen{seen: make(map[int64]time.Time)}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if state.allow(user.ID, now(), opts.Interval) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "rate.limited",
				slog.String("status", "skip"),
				slog.String("kind", kind),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
