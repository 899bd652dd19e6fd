// Package shopbot assembles the storefront: storage, sessions, the flow
// controller and the Telegram routes that drive it.
package shopbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/shopbot/core/bootstrap"
	"github.com/m3rciful/shopbot/core/logger"
	coretelegram "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/shop/action"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/config"
	"github.com/m3rciful/shopbot/shop/flow"
	"github.com/m3rciful/shopbot/shop/notify"
	"github.com/m3rciful/shopbot/shop/session"
)

// CommandRefresh recomputes best sellers. Admin only.
const CommandRefresh = "/refresh"

// App owns the storefront infrastructure and implements cmd.TelegramApp.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	redis    *redis.Client
	notifier *notify.Telegram
	handler  *Handler
}

// Build bootstraps logging and the database, then wires the storefront.
func Build(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("shopbot: nil config provided")
	}

	var modules bootstrap.Modules
	if cfg.Shop.SeedDemo {
		modules.Seeders = append(modules.Seeders, catalog.DemoSeeder())
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Modules:  modules,
	})
	if err != nil {
		return nil, err
	}

	ctx := logger.Background()
	store := catalog.NewSQLStore(res.DB)
	ranking := catalog.NewMinIDRanking(store, cfg.BestSellersTTL())
	if err := ranking.Refresh(ctx); err != nil {
		logger.Warn(ctx, "service.catalog", "ranking.warmup",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}

	sessions, rdb, err := openSessions(ctx, cfg)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	notifier := notify.NewTelegram(cfg.Shop.AdminChatID, cfg.Shop.Currency, nil)
	ctrl := flow.New(store, ranking, notifier, flow.Options{
		Currency:          cfg.Shop.Currency,
		Suggestions:       cfg.Shop.Suggestions,
		ClearCartOnCancel: cfg.Shop.ClearCartOnCancel,
	})

	return &App{
		cfg:      cfg,
		db:       res.DB,
		redis:    rdb,
		notifier: notifier,
		handler:  NewHandler(ctrl, sessions, ranking),
	}, nil
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Store, *redis.Client, error) {
	if cfg.Session.Backend != config.SessionBackendRedis {
		logger.Info(ctx, "service.sessions", "sessions.backend",
			slog.String("mode", config.SessionBackendMemory),
		)
		return session.NewMemoryStore(), nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Session.RedisAddr,
		Password: cfg.Session.RedisPassword,
		DB:       cfg.Session.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("shopbot: redis ping failed: %w", err)
	}
	logger.Info(ctx, "service.sessions", "sessions.backend",
		slog.String("mode", config.SessionBackendRedis),
		slog.String("host", cfg.Session.RedisAddr),
	)
	return session.NewRedisStore(rdb, session.RedisOptions{TTL: cfg.SessionTTL()}), rdb, nil
}

// Registry declares the bot commands and one callback per action kind.
func (a *App) Registry() (*coretelegram.Registry, error) {
	h := a.handler
	reg := coretelegram.NewRegistry()
	cmds := []struct {
		name string
		cmd  coretelegram.Command
	}{
		{flow.CommandStart, coretelegram.Command{
			Handler:     h.OnStart,
			Description: "Open the main menu",
			Aliases:     []string{"menu"},
		}},
		{flow.CommandSkip, coretelegram.Command{
			Handler:     h.OnSkip,
			Description: "Skip the optional email",
			Hidden:      true,
		}},
		{CommandRefresh, coretelegram.Command{
			Handler:     h.OnRefresh,
			Description: "Recompute best sellers",
			AdminOnly:   true,
		}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return nil, err
		}
	}
	for _, k := range action.Kinds() {
		if err := reg.RegisterCallback(string(k), h.OnCallback); err != nil {
			return nil, err
		}
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	return reg, nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	h := a.handler

	reg, err := a.Registry()
	if err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
		OnPanic: h.OnPanic,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: h.UnknownCallback(),
		OnPanic:  h.OnPanic,
	}))
	routes = append(routes, router.TextRoutes(h, reg, router.TextOptions{
		UnknownText:     h.UnknownText(),
		UnknownDocument: h.UnknownDocument(),
		OnPanic:         h.OnPanic,
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, h.OnRateLimited),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			if rt.Bot == nil {
				return fmt.Errorf("shopbot: runtime without bot")
			}
			a.notifier.Bind(rt.Bot)
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}
