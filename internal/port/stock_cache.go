package port

import (
	"context"
	"time"
)

// Sentinel results from DecrementIfPositive.
const (
	CacheMiss      int64 = -1
	CacheExhausted int64 = -2
)

// StockCache is a fast, TTL-bounded accelerator in front of the stock ledger.
// It is never authoritative.
type StockCache interface {
	// DecrementIfPositive atomically decrements the cached stock when it is
	// > 0 and returns the new value (>= 0). Returns CacheMiss when the key
	// is absent and CacheExhausted when the cached value is already <= 0.
	DecrementIfPositive(ctx context.Context, productID string) (int64, error)

	// SetStockNX populates the cached stock only when the key is absent,
	// returns true when this call's write took effect
	SetStockNX(ctx context.Context, productID string, stock int, ttl time.Duration) (bool, error)

	// SetStock unconditionally writes the cached stock
	SetStock(ctx context.Context, productID string, stock int, ttl time.Duration) error

	// GetStock reads the cached stock, second result false when absent
	GetStock(ctx context.Context, productID string) (int, bool, error)
}
