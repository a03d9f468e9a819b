package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"farmacia-bermat/backend/internal/domain"
)

const keyPrefix = "farmacia:audit:"

type RedisAuditCache struct {
	client *redis.Client
}

func NewRedisAuditCache(addr string, password string, db int) *RedisAuditCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisAuditCache{client: client}
}

func (c *RedisAuditCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAuditCache) Close() error {
	return c.client.Close()
}

func (c *RedisAuditCache) Get(ctx context.Context, key string) (*domain.AuditReport, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get audit: %w", err)
	}

	var report domain.AuditReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, false, fmt.Errorf("decode cached audit: %w", err)
	}
	return &report, true, nil
}

func (c *RedisAuditCache) Set(ctx context.Context, key string, value *domain.AuditReport, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, payload, ttl).Err()
}
