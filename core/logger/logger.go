// Package logger provides the structured slog setup shared by the bot: one
// flat line per event with a component, an event name and correlation ids.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/shopbot/core/buildinfo"
	coreconfig "github.com/m3rciful/shopbot/core/config"
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	out     *sink
	closers []io.Closer

	level slog.LevelVar
	debug atomic.Pointer[sampler]
	trace bool

	// L is the base logger; nil until InitLogger runs.
	L *slog.Logger

	// DB logs database connection events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs schema migrations.
	MIG *slog.Logger
	// TWire logs registry and route wiring.
	TWire *slog.Logger
	// SEED logs reference data seeding.
	SEED *slog.Logger
)

func init() {
	debug.Store(newSampler(1, 50))
	wireComponents(slog.New(slog.DiscardHandler))
}

// wireComponents points the component loggers at base. Until InitLogger runs
// they discard output, so packages can log from tests.
func wireComponents(base *slog.Logger) {
	DB = base.With("component", "db")
	TG = base.With("component", "tg")
	MIG = base.With("component", "db.migrate")
	TWire = base.With("component", "tg.wire")
	SEED = base.With("component", "db.seed")
}

// InitLogger configures the global logger. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		var logging coreconfig.LoggingConfig
		if cfg != nil {
			logging = cfg.Logging
		}
		level.Set(parseLevel(logging.Level))
		debug.Store(parseSampler(logging.DebugSample))
		trace = isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))

		main, alerts, files, err := openOutputs(logging)
		if err != nil {
			initErr = err
			return
		}
		closers = files
		out = newSink(main, alerts, 64*1024)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &level,
			sink:     out,
			format:   parseFormat(logging),
			keyOrder: parseKeyOrder(logging.KeysOrder),
		}))
		slog.SetDefault(L)
		wireComponents(L)

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build", buildinfo.String()),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profile(logging)),
		)
	})
	return initErr
}

// Shutdown flushes buffered output and closes log files.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if out != nil {
			errs = append(errs, out.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

func parseFormat(cfg coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch profile(cfg) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	var order []string
	if raw != "" && raw != "default" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				order = append(order, p)
			}
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func profile(cfg coreconfig.LoggingConfig) string {
	if p := strings.TrimSpace(cfg.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

// openOutputs returns stdout plus the optional bot log file as main outputs
// and the optional errors file as the alert output.
func openOutputs(cfg coreconfig.LoggingConfig) (main, alerts []io.Writer, files []io.Closer, err error) {
	main = []io.Writer{os.Stdout}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return main, nil, nil, nil
	}
	open := func(name string) (*os.File, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logger: create log dir %s: %w", dir, err)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open log file %s: %w", path, err)
		}
		return f, nil
	}
	if name := strings.TrimSpace(cfg.BotFile); name != "" {
		f, err := open(name)
		if err != nil {
			return nil, nil, nil, err
		}
		main = append(main, f)
		files = append(files, f)
	}
	if name := strings.TrimSpace(cfg.ErrorsFile); name != "" {
		f, err := open(name)
		if err != nil {
			for _, c := range files {
				_ = c.Close()
			}
			return nil, nil, nil, err
		}
		alerts = append(alerts, f)
		files = append(files, f)
	}
	return main, alerts, files, nil
}

// LogEvent logs attrs with an "event" attribute through logg, the context
// logger or L, whichever is set first.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Component returns L scoped to a component, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs an event for component at lvl.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && strings.TrimSpace(component) != "" {
			logg = logg.With("component", strings.TrimSpace(component))
		}
	}
	LogEvent(ctx, logg, lvl, event, attrs...)
}

// Debug logs a debug-level event.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// sampler lets num out of every den calls through; den 0 lets all through.
type sampler struct {
	num, den uint64
	n        atomic.Uint64
}

func newSampler(num, den uint64) *sampler {
	if num > den {
		num = den
	}
	return &sampler{num: num, den: den}
}

func (s *sampler) allow() bool {
	if s.den == 0 {
		return true
	}
	return (s.n.Add(1)-1)%s.den < s.num
}

// parseSampler reads "n/d" or "d" (meaning 1/d). "0" disables sampling and
// anything unparsable keeps the default of 1/50.
func parseSampler(spec string) *sampler {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return newSampler(1, 50)
	}
	numStr, denStr, hasSlash := strings.Cut(spec, "/")
	if !hasSlash {
		numStr, denStr = "1", spec
	}
	num, err1 := strconv.ParseUint(strings.TrimSpace(numStr), 10, 64)
	den, err2 := strconv.ParseUint(strings.TrimSpace(denStr), 10, 64)
	switch {
	case err1 != nil || err2 != nil:
		return newSampler(1, 50)
	case num == 0 || den == 0:
		return newSampler(0, 0)
	}
	return newSampler(num, den)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug detail should be logged.
func ShouldSampleDebug() bool {
	return trace || debug.Load().allow()
}
