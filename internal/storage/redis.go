package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds a go-redis client and pings it.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

type redisSlots struct {
	client    *redis.Client
	namespace string
}

// NewRedis stores each slot under "<namespace>:<key>" without expiry.
func NewRedis(client *redis.Client, namespace string) Slots {
	return &redisSlots{client: client, namespace: namespace}
}

func (r *redisSlots) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.slotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *redisSlots) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.slotKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisSlots) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.slotKey(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *redisSlots) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisSlots) slotKey(key string) string {
	return r.namespace + ":" + key
}
