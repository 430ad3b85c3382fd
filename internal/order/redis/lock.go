package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-ordering/internal/logger"
)

const lockPrefix = "order_lock:"

// OrderLock serializes staff actions on a single order across instances.
type OrderLock struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewOrderLock(client *redis.Client, ttl time.Duration, log *logger.Logger) *OrderLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &OrderLock{Client: client, TTL: ttl, Logger: log}
}

func lockKey(orderID string) string {
	return lockPrefix + orderID
}

// Lock takes the order lock for owner. It reports false without error when
// someone else holds it.
func (l *OrderLock) Lock(ctx context.Context, orderID, owner string) (bool, error) {
	ok, err := l.Client.SetNX(ctx, lockKey(orderID), owner, l.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", orderID, err)
	}
	if !ok {
		l.Logger.Debug("REDIS", fmt.Sprintf("order %s is locked by another request", orderID))
	}
	return ok, nil
}

// Unlock releases the lock only if owner still holds it.
func (l *OrderLock) Unlock(ctx context.Context, orderID, owner string) error {
	key := lockKey(orderID)
	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val != owner {
		return nil
	}
	return l.Client.Del(ctx, key).Err()
}

func (l *OrderLock) IsLocked(ctx context.Context, orderID string) (bool, error) {
	n, err := l.Client.Exists(ctx, lockKey(orderID)).Result()
	return n > 0, err
}
