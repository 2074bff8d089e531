package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"resume-optimizer/internal/shared/telemetry"
)

// Options tunes the history database pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	// StatementTimeout is sent as a runtime parameter; zero leaves the server default.
	StatementTimeout time.Duration
	AppName          string
}

// openDB is swapped in tests.
var openDB = func(cfg *pgx.ConnConfig) (*sql.DB, error) {
	return stdlib.OpenDB(*cfg), nil
}

// DefaultServerOptions suits the API process.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:     8,
		MaxIdleConns:     4,
		ConnMaxLifetime:  30 * time.Minute,
		ConnMaxIdleTime:  5 * time.Minute,
		PingTimeout:      5 * time.Second,
		StatementTimeout: 10 * time.Second,
		AppName:          "resume-optimizer",
	}
}

// DefaultCLIOptions suits one-shot tools such as the migrator.
func DefaultCLIOptions() Options {
	o := DefaultServerOptions()
	o.MaxOpenConns, o.MaxIdleConns = 1, 1
	o.StatementTimeout = 0
	o.AppName = "resume-optimizer-migrate"
	return o
}

// OptionsFromEnv applies DB_* overrides. Unparseable values are logged and ignored.
func OptionsFromEnv(o Options) Options {
	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS": &o.MaxOpenConns,
		"DB_MAX_IDLE_CONNS": &o.MaxIdleConns,
	}
	for key, dst := range ints {
		if raw, ok := lookup(key); ok {
			if v, err := strconv.Atoi(raw); err == nil {
				*dst = v
			} else {
				invalidEnv(key, err)
			}
		}
	}
	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &o.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &o.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &o.PingTimeout,
		"DB_STATEMENT_TIMEOUT":  &o.StatementTimeout,
	}
	for key, dst := range durations {
		if raw, ok := lookup(key); ok {
			if v, err := time.ParseDuration(raw); err == nil {
				*dst = v
			} else {
				invalidEnv(key, err)
			}
		}
	}
	return o
}

func lookup(key string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	return raw, raw != ""
}

func invalidEnv(key string, err error) {
	telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err.Error()})
}

func connConfig(databaseURL string, o Options) (*pgx.ConnConfig, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if o.AppName != "" {
		if _, set := cfg.RuntimeParams["application_name"]; !set {
			cfg.RuntimeParams["application_name"] = o.AppName
		}
	}
	if o.StatementTimeout > 0 {
		cfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(o.StatementTimeout.Milliseconds(), 10)
	}
	return cfg, nil
}

// Connect opens a pooled handle through pgx and pings it before returning.
func Connect(ctx context.Context, databaseURL string, o Options) (*sql.DB, error) {
	cfg, err := connConfig(databaseURL, o)
	if err != nil {
		return nil, err
	}
	database, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(positive(o.MaxOpenConns, 8))
	database.SetMaxIdleConns(positive(o.MaxIdleConns, 4))
	database.SetConnMaxLifetime(o.ConnMaxLifetime)
	database.SetConnMaxIdleTime(o.ConnMaxIdleTime)

	timeout := o.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database %s: %w", cfg.Host, err)
	}

	telemetry.Info("db.connected", map[string]any{
		"host":     cfg.Host,
		"database": cfg.Database,
		"max_open": database.Stats().MaxOpenConnections,
	})
	return database, nil
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
