// Package config loads the storefront configuration on top of the core bot config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
)

const (
	// SessionBackendMemory keeps sessions in process memory.
	SessionBackendMemory = "memory"
	// SessionBackendRedis keeps sessions in Redis.
	SessionBackendRedis = "redis"
)

// ShopConfig holds storefront behaviour settings.
type ShopConfig struct {
	// AdminChatID receives every finalized order.
	AdminChatID       int64  `yaml:"admin_chat_id" envconfig:"ADMIN_CHAT_ID"`
	Currency          string `yaml:"currency" envconfig:"SHOP_CURRENCY"`
	Suggestions       int    `yaml:"suggestions" envconfig:"SHOP_SUGGESTIONS"`
	ClearCartOnCancel bool   `yaml:"clear_cart_on_cancel" envconfig:"SHOP_CLEAR_CART_ON_CANCEL"`
	// BestSellersTTLSeconds controls ranking refresh; 0 computes it once.
	BestSellersTTLSeconds int  `yaml:"bestsellers_ttl_seconds" envconfig:"SHOP_BESTSELLERS_TTL_SECONDS"`
	SeedDemo              bool `yaml:"seed_demo" envconfig:"SHOP_SEED_DEMO"`
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	Backend       string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisAddr     string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`
	TTLHours      int    `yaml:"ttl_hours" envconfig:"SESSION_TTL_HOURS"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Shop     ShopConfig          `yaml:"shop"`
	Session  SessionConfig       `yaml:"session"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// BestSellersTTL returns the ranking refresh interval.
func (c *Config) BestSellersTTL() time.Duration {
	return time.Duration(c.Shop.BestSellersTTLSeconds) * time.Second
}

// SessionTTL returns the idle expiry for persisted sessions.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// Load reads .env (if present), the YAML file at path (if present) and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required settings and applies defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if cfg.Shop.AdminChatID == 0 {
		return fmt.Errorf("shop.admin_chat_id (ADMIN_CHAT_ID) is required")
	}
	if cfg.Telegram.AdminID == 0 && cfg.Shop.AdminChatID > 0 {
		cfg.Telegram.AdminID = cfg.Shop.AdminChatID
	}
	if strings.TrimSpace(cfg.Shop.Currency) == "" {
		cfg.Shop.Currency = "RON"
	}
	if cfg.Shop.Suggestions <= 0 {
		cfg.Shop.Suggestions = 2
	}
	if cfg.Shop.BestSellersTTLSeconds < 0 {
		return fmt.Errorf("shop.bestsellers_ttl_seconds must be >= 0")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	if backend == "" {
		backend = SessionBackendMemory
	}
	switch backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if strings.TrimSpace(cfg.Session.RedisAddr) == "" {
			return fmt.Errorf("session.redis_addr is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", cfg.Session.Backend)
	}
	cfg.Session.Backend = backend
	if cfg.Session.TTLHours < 0 {
		return fmt.Errorf("session.ttl_hours must be >= 0")
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 5
	}
	return nil
}
