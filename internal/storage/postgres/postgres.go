// Package postgres stores finished game runs in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/culturebot/rpg/internal/config"
)

// ApplicationName identifies the game server's connections in pg_stat_activity.
const ApplicationName = "rpgserver"

// Pool owns the connection pool shared by the repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// poolConfig translates cfg into pgx pool settings.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	return poolCfg, nil
}

// NewPool connects to the database described by cfg and verifies it answers.
//
// Precondition: cfg must pass config validation with Enabled set.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Pool{pool: pool}, nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all connections. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
