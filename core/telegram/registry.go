package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
)

// Command is a slash command and its menu metadata. Hidden and AdminOnly
// commands are routed but never published in the bot menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are plain words (or slash forms) that trigger the command when
	// sent as a whole message.
	Aliases []string
}

var (
	ErrInvalidRoute   = errors.New("telegram: invalid route")
	ErrDuplicateRoute = errors.New("telegram: duplicate route")
)

// Registry holds commands and callback handlers keyed by callback unique.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]Command
	aliases          map[string]string
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func commandKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

// RegisterCommand adds a command under name ("/start"). Aliases must not
// collide with another command or alias.
func (r *Registry) RegisterCommand(name string, cmd Command) error {
	if !strings.HasPrefix(name, "/") || cmd.Handler == nil || cmd.Description == "" {
		logger.TWire.Warn("register.command.skip", slog.String("name", name))
		return fmt.Errorf("%w: command %q", ErrInvalidRoute, name)
	}
	key := commandKey(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(key) {
		logger.TWire.Warn("register.command.duplicate", slog.String("name", key))
		return fmt.Errorf("%w: command %q", ErrDuplicateRoute, key)
	}
	for _, a := range cmd.Aliases {
		if ak := commandKey(a); ak == "" || r.taken(ak) || ak == key {
			return fmt.Errorf("%w: alias %q of %q", ErrDuplicateRoute, a, key)
		}
	}
	r.commands[key] = cmd
	for _, a := range cmd.Aliases {
		r.aliases[commandKey(a)] = key
	}
	return nil
}

func (r *Registry) taken(key string) bool {
	_, cmd := r.commands[key]
	_, alias := r.aliases[key]
	return cmd || alias
}

// LookupCommand resolves a command by name or alias. Slash commands may carry
// arguments and a bot mention suffix ("/start@shop_bot"); aliases must be the
// whole message.
func (r *Registry) LookupCommand(text string) (string, Command, bool) {
	name, _, hasArgs := strings.Cut(strings.TrimSpace(text), " ")
	if hasArgs && !strings.HasPrefix(name, "/") {
		return "", Command{}, false
	}
	name, _, _ = strings.Cut(name, "@")
	key := commandKey(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	cmd, ok := r.commands[key]
	if !ok {
		return "", Command{}, false
	}
	return key, cmd, true
}

// Commands returns a copy of the registered commands.
func (r *Registry) Commands() map[string]Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// MenuCommands lists the commands published in the Telegram menu, sorted.
func (r *Registry) MenuCommands() []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if cmd.Hidden || cmd.AdminOnly {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: cmd.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// RegisterCallback maps a callback unique to its handler.
func (r *Registry) RegisterCallback(unique string, handler tele.HandlerFunc) error {
	if unique == "" || handler == nil {
		logger.TWire.Warn("register.callback.skip",
			slog.String("key", unique),
			slog.Bool("handler_nil", handler == nil),
		)
		return fmt.Errorf("%w: callback %q", ErrInvalidRoute, unique)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.callbacks[unique]; ok {
		logger.TWire.Warn("register.callback.duplicate", slog.String("key", unique))
		return fmt.Errorf("%w: callback %q", ErrDuplicateRoute, unique)
	}
	r.callbacks[unique] = handler
	return nil
}

// Callback returns the handler for unique, or the not-found handler.
func (r *Registry) Callback(unique string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.callbacks[unique]; ok {
		return h, true
	}
	return r.callbackNotFound, false
}

// CallbackKeys returns the registered uniques, sorted.
func (r *Registry) CallbackKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// InitBotCommands publishes the visible commands in the bot menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	cmds := reg.MenuCommands()
	if err := bot.SetCommands(cmds); err != nil {
		logger.TWire.Error("register.commands.set_failed",
			slog.Int("commands", len(cmds)),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TWire.Info("register.commands.set", slog.Int("commands", len(cmds)))
}
