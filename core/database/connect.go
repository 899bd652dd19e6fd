package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/shopbot/core/logger"
)

const driver = "postgres"

// Connect opens the pool and pings until the server is ready or the ready
// timeout elapses.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.readyTimeout())
	defer cancel()
	return ConnectContext(ctx, cfg)
}

// ConnectContext is Connect bounded by ctx.
func ConnectContext(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	start := time.Now()
	attempts, err := waitReady(ctx, db)
	took := logger.RoundMS(time.Since(start))
	if err != nil {
		_ = db.Close()
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("status", "fail"),
			slog.String("dsn", cfg.Redacted()),
			slog.Int("attempt", attempts),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("status", "ok"),
		slog.String("dsn", cfg.Redacted()),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Int("attempt", attempts),
		slog.Duration("duration", took),
	)
	return db, nil
}

func waitReady(ctx context.Context, db *sqlx.DB) (int, error) {
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return attempt, nil
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.ping"),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		delay := min(time.Duration(attempt)*500*time.Millisecond, 3*time.Second)
		select {
		case <-ctx.Done():
			return attempt, fmt.Errorf("%w (last: %v)", ctx.Err(), err)
		case <-time.After(delay):
		}
	}
}
