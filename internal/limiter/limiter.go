// limiter ограничивает число неудачных попыток входа на один email.
// Счётчики хранятся в Redis (INCR + EXPIRE), поэтому лимит общий для всех
// реплик сервиса. Все методы безопасны на nil-получателе: лимитер
// можно не конфигурировать.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLocked: превышено число неудачных попыток; вход временно запрещён.
	ErrLocked = errors.New("too many failed attempts")
	// ErrUnavailable: Redis недоступен.
	ErrUnavailable = errors.New("limiter unavailable")
)

// Config: параметры лимитера.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
	Prefix      string
}

type Login struct {
	rdb redis.UniversalClient
	cfg Config
}

// New создаёт лимитер поверх готового клиента.
// Пустой prefix заменяется на "auth:login:".
func New(rdb redis.UniversalClient, cfg Config) *Login {
	if cfg.Prefix == "" {
		cfg.Prefix = "auth:login:"
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Minute
	}

	return &Login{rdb: rdb, cfg: cfg}
}

// NewFromURL создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение.
func NewFromURL(ctx context.Context, redisURL string, cfg Config) (*Login, error) {
	const op = "limiter.NewFromURL"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return New(rdb, cfg), nil
}

func (l *Login) key(id string) string { return l.cfg.Prefix + id }

// Check возвращает ErrLocked, если для id исчерпан лимит попыток.
func (l *Login) Check(ctx context.Context, id string) error {
	if l == nil || l.rdb == nil {
		return nil
	}

	count, err := l.rdb.Get(ctx, l.key(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count >= int64(l.cfg.MaxAttempts) {
		return ErrLocked
	}

	return nil
}

// RecordFailure увеличивает счётчик неудач; окно Cooldown отсчитывается
// от первой неудачи.
func (l *Login) RecordFailure(ctx context.Context, id string) error {
	if l == nil || l.rdb == nil {
		return nil
	}

	count, err := l.rdb.Incr(ctx, l.key(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, l.key(id), l.cfg.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return nil
}

// Reset сбрасывает счётчик после успешного входа.
func (l *Login) Reset(ctx context.Context, id string) error {
	if l == nil || l.rdb == nil {
		return nil
	}

	if err := l.rdb.Del(ctx, l.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (l *Login) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}

	return l.rdb.Close()
}
