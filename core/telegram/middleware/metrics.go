package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const repliesKey = "replies"

// ReplyStats counts what a handler sent back for one update.
type ReplyStats struct {
	Messages int
	Photos   int
	Keyboard bool
}

// replyCounter wraps tele.Context and records successful outgoing messages.
type replyCounter struct {
	tele.Context
	stats *ReplyStats
}

func (r replyCounter) record(what any, opts []any, err error) error {
	if err != nil {
		return err
	}
	r.stats.Messages++
	if _, ok := what.(*tele.Photo); ok {
		r.stats.Photos++
	}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				r.stats.Keyboard = true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				r.stats.Keyboard = true
			}
		}
	}
	return nil
}

func (r replyCounter) Send(what any, opts ...any) error {
	return r.record(what, opts, r.Context.Send(what, opts...))
}

func (r replyCounter) Reply(what any, opts ...any) error {
	return r.record(what, opts, r.Context.Reply(what, opts...))
}

func (r replyCounter) Edit(what any, opts ...any) error {
	return r.record(what, opts, r.Context.Edit(what, opts...))
}

func (r replyCounter) EditOrSend(what any, opts ...any) error {
	return r.record(what, opts, r.Context.EditOrSend(what, opts...))
}

// MessageMetricsMiddleware counts the replies sent while handling an update;
// the handler summary line reads them back through Replies.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &ReplyStats{}
		c.Set(repliesKey, stats)
		return next(replyCounter{Context: c, stats: stats})
	}
}

// Replies returns the counters recorded for c, zero when not instrumented.
func Replies(c tele.Context) ReplyStats {
	if s, ok := c.Get(repliesKey).(*ReplyStats); ok && s != nil {
		return *s
	}
	return ReplyStats{}
}
