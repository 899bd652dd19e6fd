package shopbot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/shop/action"
	"github.com/m3rciful/shopbot/shop/flow"
	"github.com/m3rciful/shopbot/shop/session"
)

const (
	textError       = "An error occurred. Please try again."
	textRefreshed   = "Best sellers refreshed."
	textUnsupported = "Unsupported action"
)

// Refresher recomputes a cached ranking on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Handler adapts Telegram updates to the flow controller. Updates of one user
// are applied one at a time; the session is saved only when a step succeeds.
type Handler struct {
	ctrl     *flow.Controller
	sessions session.Store
	ranking  Refresher
	locks    userLocks
}

// NewHandler wires the controller to a session store. ranking may be nil.
func NewHandler(ctrl *flow.Controller, sessions session.Store, ranking Refresher) *Handler {
	return &Handler{
		ctrl:     ctrl,
		sessions: sessions,
		ranking:  ranking,
		locks:    userLocks{m: make(map[int64]*userLock)},
	}
}

type step func(ctx context.Context, s *session.Session) (flow.Response, error)

// OnStart shows the main menu.
func (h *Handler) OnStart(c tele.Context) error {
	return h.run(c, "start", func(ctx context.Context, s *session.Session) (flow.Response, error) {
		return h.ctrl.Start(ctx, s), nil
	})
}

// OnSkip leaves the optional email empty.
func (h *Handler) OnSkip(c tele.Context) error {
	return h.run(c, "skip", func(ctx context.Context, s *session.Session) (flow.Response, error) {
		return h.ctrl.HandleText(ctx, s, flow.CommandSkip)
	})
}

// OnText feeds free text into the checkout sub-flow.
func (h *Handler) OnText(c tele.Context) error {
	text := c.Text()
	return h.run(c, "text", func(ctx context.Context, s *session.Session) (flow.Response, error) {
		return h.ctrl.HandleText(ctx, s, text)
	})
}

// OnCallback decodes a button press into an action and applies it.
func (h *Handler) OnCallback(c tele.Context) error {
	key, payload := callbacks.Parts(c.Callback())
	a, err := action.Parse(key, payload)
	if err != nil {
		a, err = action.ParseToken(key)
	}
	if err != nil {
		logger.Debug(tghelpers.BuildContext(c), "tg", "callback.decode",
			slog.String("status", "skip"),
			slog.String("cb_key", key),
			slog.String("payload", logger.SanitizeLimit(payload, 64)),
		)
		return nil
	}
	return h.run(c, a.Token(), func(ctx context.Context, s *session.Session) (flow.Response, error) {
		return h.ctrl.HandleAction(ctx, s, a)
	})
}

// OnRefresh recomputes the best-seller ranking.
func (h *Handler) OnRefresh(c tele.Context) error {
	if h.ranking == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if err := h.ranking.Refresh(ctx); err != nil {
		return h.fail(c, ctx, "refresh", err)
	}
	return tghelpers.SendText(c, textRefreshed)
}

// OnPanic answers the user after a recovered panic.
func (h *Handler) OnPanic(c tele.Context) error {
	return tghelpers.SendText(c, textError)
}

// OnRateLimited tells the user the update was dropped.
func (h *Handler) OnRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Slow down a little."})
	}
	return nil
}

// InProgress reports whether the user is inside the checkout sub-flow, so free
// text is routed to the controller before command aliases.
func (h *Handler) InProgress(userID int64) bool {
	s, err := h.sessions.Load(context.Background(), userID)
	if err != nil {
		return false
	}
	return s.State.InCheckout()
}

// ManagerHandler handles text of users in the checkout sub-flow.
func (h *Handler) ManagerHandler(c tele.Context) error {
	return h.OnText(c)
}

// UnknownText ignores text outside checkout through the controller.
func (h *Handler) UnknownText() tele.HandlerFunc { return h.OnText }

// UnknownDocument drops files.
func (h *Handler) UnknownDocument() tele.HandlerFunc {
	return func(tele.Context) error { return nil }
}

// UnknownCallback answers callbacks that carry no known action.
func (h *Handler) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: textUnsupported})
	}
}

func (h *Handler) run(c tele.Context, op string, fn step) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	unlock := h.locks.lock(user.ID)
	defer unlock()

	ctx := tghelpers.BuildContext(c)
	stored, err := h.sessions.Load(ctx, user.ID)
	if err != nil {
		return h.fail(c, ctx, op, err)
	}
	work := stored.Clone()
	resp, err := fn(ctx, work)
	if err != nil {
		return h.fail(c, ctx, op, err)
	}
	if err := h.sessions.Save(ctx, user.ID, work); err != nil {
		return h.fail(c, ctx, op, err)
	}
	return render(c, resp)
}

func (h *Handler) fail(c tele.Context, ctx context.Context, op string, err error) error {
	logger.Error(ctx, "tg", "action.fail",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	if sendErr := tghelpers.SendText(c, textError); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func render(c tele.Context, resp flow.Response) error {
	if resp.Empty() {
		return nil
	}
	steps := make([]func() error, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		steps = append(steps, func() error { return sendMessage(c, m) })
	}
	return tghelpers.SendBatch(c, "send.reply", steps...)
}

func sendMessage(c tele.Context, m flow.Message) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(m.Buttons) > 0 {
		opts.ReplyMarkup = Markup(m.Buttons)
	}
	if m.Photo == "" {
		return c.Send(m.Text, opts)
	}
	photo := &tele.Photo{File: tele.FromURL(m.Photo), Caption: m.Text}
	if err := c.Send(photo, opts); err != nil {
		logger.Warn(tghelpers.BuildContext(c), "tg", "send.photo",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return c.Send(m.Text, opts)
	}
	return nil
}

// Markup renders buttons one per row; each button carries its action kind as
// the callback unique and the action payload as data.
func Markup(buttons []flow.Button) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, keyboard.InlineBtn{
			Text:   b.Label,
			Unique: string(b.Action.Kind),
			Data:   b.Action.Payload(),
		})
	}
	return keyboard.Column(btns)
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// userLocks hands out one mutex per user and forgets it once nobody holds it.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*userLock
}

func (l *userLocks) lock(id int64) func() {
	l.mu.Lock()
	ul, ok := l.m[id]
	if !ok {
		ul = &userLock{}
		l.m[id] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
