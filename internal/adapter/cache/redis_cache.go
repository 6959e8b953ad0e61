package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/olyamironova/auction-engine/internal/domain"
	"github.com/olyamironova/auction-engine/internal/port"
	"github.com/redis/go-redis/v9"
)

const stateKey = "auction:state"

var _ port.StateCache = (*RedisCache)(nil)

// RedisCache mirrors the latest auction snapshot for readers outside the
// process. It is never read back into the engine.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) SetState(ctx context.Context, snap *domain.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stateKey, b, c.ttl).Err()
}

// GetState returns nil when the key is missing or expired.
func (c *RedisCache) GetState(ctx context.Context) (*domain.Snapshot, error) {
	b, err := c.client.Get(ctx, stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

