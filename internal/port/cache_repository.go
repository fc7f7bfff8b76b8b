package port

import "context"

type CacheRepository interface {
	// DecrementStock atomically decreases stock in cache, returns false if insufficient
	DecrementStock(ctx context.Context, sku string, quantity int) (bool, error)

	// IncrementStock restores stock (for rollback on failure or cancellation)
	IncrementStock(ctx context.Context, sku string, quantity int) error

	// GetStock returns the cached stock and whether the key exists
	GetStock(ctx context.Context, sku string) (int, bool, error)

	// SetStock overwrites the cached stock, used when seeding from the database
	SetStock(ctx context.Context, sku string, quantity int) error

	// DeleteStock drops the cached counter for a removed product
	DeleteStock(ctx context.Context, sku string) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	Ping(ctx context.Context) error
}
