// Package database owns the process-wide Postgres pool.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// ErrMissingURL is returned when no connection string is configured.
var ErrMissingURL = errors.New("database: connection string is required")

// Options configures the shared pool.
type Options struct {
	URL      string
	SSL      bool
	MaxConns int32
}

type connectFunc func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error)

// Provider lazily creates one pgx pool and hands it to every caller.
// Connections are acquired and released per query by pgxpool.
type Provider struct {
	opts    Options
	logger  *logging.Logger
	connect connectFunc

	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error

	dbOnce sync.Once
	db     *sql.DB
}

// NewProvider validates opts and returns a provider. No connection is opened yet.
func NewProvider(opts Options, logger *logging.Logger) (*Provider, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, ErrMissingURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Provider{
		opts:    opts,
		logger:  logger,
		connect: pgxpool.NewWithConfig,
	}, nil
}

// Pool returns the shared pool, creating it on first use. Concurrent first
// callers block on the same initialization.
func (p *Provider) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	p.poolOnce.Do(func() {
		dsn, err := ConnString(p.opts.URL, p.opts.SSL)
		if err != nil {
			p.poolErr = err
			return
		}
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			p.poolErr = fmt.Errorf("database: parse config: %w", err)
			return
		}
		if p.opts.MaxConns > 0 {
			cfg.MaxConns = p.opts.MaxConns
		}
		pool, err := p.connect(ctx, cfg)
		if err != nil {
			p.poolErr = fmt.Errorf("database: create pool: %w", err)
			return
		}
		p.pool = pool
		p.logger.Info("postgres pool initialized", "max_conns", cfg.MaxConns, "ssl", p.opts.SSL)
	})
	return p.pool, p.poolErr
}

// DB exposes the shared pool through database/sql for stores written against *sql.DB.
func (p *Provider) DB(ctx context.Context) (*sql.DB, error) {
	pool, err := p.Pool(ctx)
	if err != nil {
		return nil, err
	}
	p.dbOnce.Do(func() {
		p.db = stdlib.OpenDBFromPool(pool)
	})
	return p.db, nil
}

// Close releases the pool if it was ever created.
func (p *Provider) Close() {
	if p == nil {
		return
	}
	if p.db != nil {
		_ = p.db.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
}

// ConnString applies the SSL flag to dsn unless dsn already pins an sslmode.
// Both URL and keyword/value forms are accepted.
func ConnString(dsn string, ssl bool) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", ErrMissingURL
	}
	mode := "disable"
	if ssl {
		mode = "require"
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("database: invalid url: %w", err)
		}
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", mode)
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}

	if strings.Contains(dsn, "sslmode=") {
		return dsn, nil
	}
	return dsn + " sslmode=" + mode, nil
}
