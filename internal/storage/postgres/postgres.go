// postgres: хранилище пользователей на PostgreSQL (pgxpool).
// Схема создаётся встроенными goose-миграциями (см. Migrate).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pribylovaa/local-auth/internal/storage"
)

type Storage struct {
	pool *pgxpool.Pool
}

// Option настраивает пул соединений до его создания.
type Option func(*pgxpool.Config)

// WithMaxConns ограничивает размер пула; n <= 0 оставляет значение pgx.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithMaxConnIdleTime закрывает соединения, простаивающие дольше d.
func WithMaxConnIdleTime(d time.Duration) Option {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnIdleTime = d
		}
	}
}

// New подключается к PostgreSQL по dbURL и проверяет соединение.
func New(ctx context.Context, dbURL string, opts ...Option) (*Storage, error) {
	const op = "storage.postgres.New"

	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, opt := range opts {
		opt(poolCfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{pool: pool}, nil
}

// Ping используется readiness-пробами.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("storage.postgres.Ping: %w", err)
	}
	return nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

var _ storage.Storage = (*Storage)(nil)
