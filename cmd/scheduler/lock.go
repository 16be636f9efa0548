package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisLocker implements Locker with SET NX
type redisLocker struct {
	client *redis.Client
	owner  string
}

// NewRedisLocker creates a locker whose lock values identify this process
func NewRedisLocker(client *redis.Client, owner string) *redisLocker {
	return &redisLocker{client: client, owner: owner}
}

// Acquire takes the lock for ttl. The lock is never released, it expires after ttl.
func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set lock %s: %w", key, err)
	}
	return ok, nil
}
