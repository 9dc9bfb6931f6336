package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const stockKeyPrefix = "product:"

// decrementIfPositiveScript reads and conditionally mutates the counter in
// one indivisible step. -1 signals an absent key, -2 an exhausted counter;
// any other result is the stock after the decrement.
var decrementIfPositiveScript = redis.NewScript(`
local value = redis.call('GET', KEYS[1])
if not value then
	return -1
end

value = tonumber(value)
if value <= 0 then
	return -2
end

return redis.call('DECR', KEYS[1])
`)

// RedisCache implements port.StockCache on a single Redis instance.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) DecrementIfPositive(ctx context.Context, productID string) (int64, error) {
	return decrementIfPositiveScript.Run(ctx, r.client, []string{stockKey(productID)}).Int64()
}

func (r *RedisCache) SetStockNX(ctx context.Context, productID string, stock int, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, stockKey(productID), stock, ttl).Result()
}

func (r *RedisCache) SetStock(ctx context.Context, productID string, stock int, ttl time.Duration) error {
	return r.client.Set(ctx, stockKey(productID), stock, ttl).Err()
}

func (r *RedisCache) GetStock(ctx context.Context, productID string) (int, bool, error) {
	stock, err := r.client.Get(ctx, stockKey(productID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return stock, true, nil
}

func stockKey(productID string) string {
	return stockKeyPrefix + productID
}
