package database

import (
	"net"
	"net/url"
	"time"
)

// Config holds the PostgreSQL connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir is resolved against the working directory when relative.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
	// ReadyTimeoutSec bounds how long Connect waits for the server to accept
	// connections.
	ReadyTimeoutSec int `yaml:"ready_timeout_sec" envconfig:"DB_READY_TIMEOUT_SEC"`
}

// URL renders the config as a postgres:// URL with credentials escaped.
func (c Config) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.port()),
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.sslMode())
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted is URL with the password masked, for logs.
func (c Config) Redacted() string {
	u, err := url.Parse(c.URL())
	if err != nil {
		return ""
	}
	return u.Redacted()
}

func (c Config) port() string {
	if c.Port == "" {
		return "5432"
	}
	return c.Port
}

func (c Config) sslMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}

func (c Config) migrationsDir() string {
	if c.MigrationsDir == "" {
		return "migrations"
	}
	return c.MigrationsDir
}

func (c Config) readyTimeout() time.Duration {
	if c.ReadyTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReadyTimeoutSec) * time.Second
}
