package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// AcquireLock takes a best-effort exclusive lock. The TTL is the backstop
// against a holder that dies without releasing.
func AcquireLock(ctx context.Context, client *redis.Client, key, token string, ttl time.Duration) (bool, error) {
	return client.SetNX(ctx, key, token, ttl).Result()
}

// ReleaseLock deletes the lock only if it still holds our token, so an
// expired lock reacquired by another holder is left alone.
func ReleaseLock(ctx context.Context, client *redis.Client, key, token string) error {
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}
	if val != token {
		return nil
	}
	return client.Del(ctx, key).Err()
}
