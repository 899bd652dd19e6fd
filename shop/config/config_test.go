package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/shopbot/core/config"
)

func valid() *Config {
	return &Config{
		Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "123:abc"}},
		Shop:   ShopConfig{AdminChatID: 555},
	}
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	cfg := valid()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, "RON", cfg.Shop.Currency)
	assert.Equal(t, 2, cfg.Shop.Suggestions)
	assert.False(t, cfg.Shop.ClearCartOnCancel)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, int64(555), cfg.Telegram.AdminID)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, 5, cfg.Database.MaxConnections)
	assert.Zero(t, cfg.BestSellersTTL())
}

func TestNormalizeFailsFast(t *testing.T) {
	noAdmin := valid()
	noAdmin.Shop.AdminChatID = 0
	assert.ErrorContains(t, Normalize(noAdmin), "admin_chat_id")

	noToken := valid()
	noToken.Telegram.Token = ""
	assert.ErrorContains(t, Normalize(noToken), "telegram.token")

	redisNoAddr := valid()
	redisNoAddr.Session.Backend = "Redis"
	assert.ErrorContains(t, Normalize(redisNoAddr), "redis_addr")

	badBackend := valid()
	badBackend.Session.Backend = "etcd"
	assert.ErrorContains(t, Normalize(badBackend), "etcd")
}

func TestLoadMergesYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	yaml := `
telegram:
  token: from-yaml
shop:
  admin_chat_id: 42
  currency: EUR
  bestsellers_ttl_seconds: 90
session:
  backend: redis
  redis_addr: localhost:6379
  ttl_hours: 48
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("SHOP_SUGGESTIONS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Shop.AdminChatID)
	assert.Equal(t, "EUR", cfg.Shop.Currency)
	assert.Equal(t, 3, cfg.Shop.Suggestions)
	assert.Equal(t, 90*time.Second, cfg.BestSellersTTL())
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL())
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "env-only")
	t.Setenv("ADMIN_CHAT_ID", "7")

	cfg, err := Load("missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.Shop.AdminChatID)
}
