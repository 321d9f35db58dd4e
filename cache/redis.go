package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"crmdash/orders"
)

const ordersKey = "crmdash:crm:orders"

// RedisStore caches the flattened CRM order list.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) GetOrders(ctx context.Context) ([]orders.Order, bool, error) {
	data, err := r.client.Get(ctx, ordersKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []orders.Order
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false, err
	}
	return list, true, nil
}

func (r *RedisStore) SetOrders(ctx context.Context, list []orders.Order, ttl time.Duration) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, ordersKey, data, ttl).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
