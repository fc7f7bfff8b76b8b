package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/warehouse-console/internal/port"
)

const (
	stockKeyPrefix    = "stock:"
	idempotencyPrefix = "idempotency:"
	idempotencyKeyTTL = 24 * time.Hour
)

var _ port.CacheRepository = (*RedisAdapter)(nil)

var decrementStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return 0
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

// RedisAdapter keeps per-SKU stock counters mirroring the database.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) DecrementStock(ctx context.Context, sku string, quantity int) (bool, error) {
	result, err := decrementStockScript.Run(ctx, r.client, []string{stockKeyPrefix + sku}, quantity).Int()
	if err != nil {
		return false, errors.Wrapf(err, "decrement stock %s", sku)
	}
	return result == 1, nil
}

func (r *RedisAdapter) IncrementStock(ctx context.Context, sku string, quantity int) error {
	return errors.Wrapf(r.client.IncrBy(ctx, stockKeyPrefix+sku, int64(quantity)).Err(), "increment stock %s", sku)
}

func (r *RedisAdapter) GetStock(ctx context.Context, sku string) (int, bool, error) {
	n, err := r.client.Get(ctx, stockKeyPrefix+sku).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "get stock %s", sku)
	}
	return n, true, nil
}

func (r *RedisAdapter) SetStock(ctx context.Context, sku string, quantity int) error {
	return errors.Wrapf(r.client.Set(ctx, stockKeyPrefix+sku, quantity, 0).Err(), "set stock %s", sku)
}

func (r *RedisAdapter) DeleteStock(ctx context.Context, sku string) error {
	return errors.Wrapf(r.client.Del(ctx, stockKeyPrefix+sku).Err(), "delete stock %s", sku)
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, errors.Wrap(err, "set idempotency key")
	}
	return ok, nil
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
