package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrBusy indica que outra instância já segura o lock
var ErrBusy = errors.New("lock is held by another request")

// Locker serializa operações sobre a mesma chave entre instâncias
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NoopLocker é usado quando REDIS_ADDR não está configurado; o lock de linha
// do Postgres continua garantindo a exclusão
type NoopLocker struct{}

func (NoopLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

// RedisLocker implementa Locker com bsm/redislock
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewRedisLocker cria uma nova instância de RedisLocker
func NewRedisLocker(rdb *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		logger: logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 5),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrBusy, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	release := func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.WithField("key", key).Warnf("⚠️ failed to release lock: %v", err)
		}
	}
	return release, nil
}

// PaymentKey é a chave usada para serializar confirmações de um pagamento
func PaymentKey(paymentID int64) string {
	return fmt.Sprintf("payment:confirm:%d", paymentID)
}
