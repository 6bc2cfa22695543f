// limiter - ограничение попыток входа на Redis.
//
// Фиксированное окно на нормализованный email. Ключ создаётся вместе с TTL
// (SET NX EX) и увеличивается (INCR) в одной транзакции MULTI/EXEC, так что
// счётчик без срока жизни не появляется. Больше MaxAttempts попыток в окне -
// ErrRateLimited. Успешный вход сбрасывает счётчик.
package limiter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "blog-admin:login:"

	// noExpiry - ответ PTTL для ключа без срока жизни.
	noExpiry = time.Duration(-1)
)

var (
	// ErrRateLimited - попытки в текущем окне исчерпаны.
	ErrRateLimited = errors.New("too many login attempts")
	// ErrUnavailable - Redis не ответил; вызывающая сторона решает, пропускать ли запрос.
	ErrUnavailable = errors.New("rate limiter unavailable")
)

// Config - параметры окна.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	// Prefix ключей; пустой - "blog-admin:login:".
	Prefix string
}

// Limiter - счётчик попыток входа. Безопасен для конкурентного использования.
type Limiter struct {
	rdb    redis.UniversalClient
	cfg    Config
	closer func() error
}

// New создаёт лимитер поверх готового клиента Redis.
func New(rdb redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	return &Limiter{rdb: rdb, cfg: cfg, closer: func() error { return nil }}
}

// NewFromURL создаёт клиента из URL (redis://:pass@host:6379/0) и проверяет соединение.
func NewFromURL(ctx context.Context, redisURL string, cfg Config) (*Limiter, error) {
	const op = "limiter.NewFromURL"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	l := New(rdb, cfg)
	l.closer = rdb.Close

	return l, nil
}

// Allow учитывает попытку входа для email.
//
// Ключ без TTL (оставшийся, например, от ручной правки) получает окно заново:
// иначе он блокировал бы вход навсегда.
func (l *Limiter) Allow(ctx context.Context, email string) error {
	key := l.key(email)

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)

	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.cfg.Window)
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if pttl.Val() == noExpiry {
		if err := l.rdb.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if incr.Val() > int64(l.cfg.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Reset сбрасывает счётчик после успешного входа.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	if err := l.rdb.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Attempts возвращает число попыток в текущем окне.
func (l *Limiter) Attempts(ctx context.Context, email string) (int, error) {
	n, err := l.rdb.Get(ctx, l.key(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return n, nil
}

// Close закрывает клиента, если лимитер его создавал.
func (l *Limiter) Close() error { return l.closer() }

// key - email в ключе не хранится в открытом виде.
func (l *Limiter) key(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return l.cfg.Prefix + hex.EncodeToString(sum[:16])
}
