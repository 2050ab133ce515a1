package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	AppPort  string
	LogLevel string

	StoreDriver string
	SQLitePath  string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	PostgresDSN string

	UsersBaseURL      string
	BooksBaseURL      string
	RemoteTimeout     time.Duration
	RemoteMaxAttempts int
	RemoteRetryDelay  time.Duration

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int
}

func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("store_driver", DriverMemory)
	v.SetDefault("sqlite_path", "loans.db")

	v.SetDefault("mysql_host", "mysql")
	v.SetDefault("mysql_port", "3306")
	v.SetDefault("mysql_db", "loans")
	v.SetDefault("mysql_user", "loans")
	v.SetDefault("mysql_pass", "loans")

	v.SetDefault("postgres_dsn", "")

	// Unset base URLs switch the service to the in-process stubs.
	v.SetDefault("users_base_url", "")
	v.SetDefault("books_base_url", "")
	v.SetDefault("remote_timeout", "3s")
	v.SetDefault("remote_max_attempts", 3)
	v.SetDefault("remote_retry_delay", "200ms")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("idempotency_ttl_seconds", 300)

	return &Config{
		AppPort:  v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		SQLitePath:  v.GetString("SQLITE_PATH"),

		MySQLHost: v.GetString("MYSQL_HOST"),
		MySQLPort: v.GetString("MYSQL_PORT"),
		MySQLDB:   v.GetString("MYSQL_DB"),
		MySQLUser: v.GetString("MYSQL_USER"),
		MySQLPass: v.GetString("MYSQL_PASS"),

		PostgresDSN: v.GetString("POSTGRES_DSN"),

		UsersBaseURL:      strings.TrimRight(v.GetString("USERS_BASE_URL"), "/"),
		BooksBaseURL:      strings.TrimRight(v.GetString("BOOKS_BASE_URL"), "/"),
		RemoteTimeout:     v.GetDuration("REMOTE_TIMEOUT"),
		RemoteMaxAttempts: v.GetInt("REMOTE_MAX_ATTEMPTS"),
		RemoteRetryDelay:  v.GetDuration("REMOTE_RETRY_DELAY"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		RedisDB:   v.GetInt("REDIS_DB"),

		IdempTTLSecs: v.GetInt("IDEMPOTENCY_TTL_SECONDS"),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	for name, raw := range map[string]string{"USERS_BASE_URL": c.UsersBaseURL, "BOOKS_BASE_URL": c.BooksBaseURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q", name, raw)
		}
	}
	if c.RemoteTimeout <= 0 {
		return errors.New("REMOTE_TIMEOUT must be positive")
	}
	if c.RemoteMaxAttempts <= 0 {
		return errors.New("REMOTE_MAX_ATTEMPTS must be positive")
	}
	if c.RemoteRetryDelay < 0 {
		return errors.New("REMOTE_RETRY_DELAY must not be negative")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATE columns
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
