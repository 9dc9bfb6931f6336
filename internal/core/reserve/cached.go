package reserve

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/port"
)

// maxDecrementAttempts bounds the cold-cache retry loop: the initial attempt
// plus two retries after repopulation.
const maxDecrementAttempts = 3

// CachedAtomicStrategy serves the fast path from the cache tier: one atomic
// script decrements the cached counter, and only winners touch the ledger.
// A cold cache is populated from the ledger with NX semantics; in-process
// concurrent misses collapse to a single ledger read via singleflight, and
// the NX write guards against other processes racing the same key.
//
// The cache decrement commits before the durable write. When the durable
// write then fails, the cached counter is left one unit low; the skew is
// bounded and the TTL restores truth, so no compensating increment is issued.
type CachedAtomicStrategy struct {
	store   port.StockStore
	cache   port.StockCache
	metrics port.MetricsSink
	logger  *zap.Logger
	ttl     time.Duration

	populate singleflight.Group
}

func NewCachedAtomicStrategy(store port.StockStore, cache port.StockCache, metrics port.MetricsSink, ttl time.Duration, logger *zap.Logger) *CachedAtomicStrategy {
	return &CachedAtomicStrategy{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		ttl:     ttl,
	}
}

func (s *CachedAtomicStrategy) Reserve(ctx context.Context, userID, productID string) (*domain.Reservation, error) {
	if err := validateInput(userID, productID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxDecrementAttempts; attempt++ {
		remaining, err := s.cache.DecrementIfPositive(ctx, productID)
		if err != nil {
			s.metrics.IncOrder(port.OrderFailed)
			return nil, wrapError(KindCacheFailure, "atomic decrement", err)
		}

		switch {
		case remaining >= 0:
			return s.confirm(ctx, userID, productID, remaining)
		case remaining == port.CacheExhausted:
			s.metrics.IncOrder(port.OrderFailed)
			return nil, newError(KindOutOfStock, "out of stock")
		}

		if err := s.populateFromStore(ctx, productID); err != nil {
			if KindOf(err) != KindNotFound {
				s.metrics.IncOrder(port.OrderFailed)
			}
			return nil, err
		}
	}

	s.metrics.IncOrder(port.OrderFailed)
	return nil, newError(KindCacheFailure, "cold cache retries exhausted")
}

// confirm makes the ledger authoritative after a winning cache decrement: the
// same conditional transaction as the transactional strategy. A rejection or
// failure here is returned as-is; the already-committed cache decrement is
// tolerated as TTL-bounded drift.
func (s *CachedAtomicStrategy) confirm(ctx context.Context, userID, productID string, cachedStock int64) (*domain.Reservation, error) {
	product, order, err := s.store.ReserveUnit(ctx, productID, userID)
	if errors.Is(err, port.ErrInsufficientStock) {
		// Cache had drifted ahead of the ledger.
		s.metrics.IncOrder(port.OrderFailed)
		return nil, newError(KindOutOfStock, "out of stock")
	}
	if err != nil {
		s.metrics.IncOrder(port.OrderFailed)
		s.logger.Warn("durable write failed after cache decrement",
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, wrapError(KindStoreFailure, "reserve unit", err)
	}

	if int64(product.Stock) != cachedStock {
		s.logger.Debug("cache and ledger diverge",
			zap.String("product_id", productID),
			zap.Int64("cached", cachedStock),
			zap.Int("ledger", product.Stock))
	}

	s.metrics.IncOrder(port.OrderConfirmed)
	s.metrics.SetStockLevel(productID, product.Stock)

	return &domain.Reservation{Order: *order, Product: *product}, nil
}

// populateFromStore copies the current ledger stock into the cache. Only one
// in-flight call per product reads the ledger; losers of the NX write leave
// the existing entry untouched.
func (s *CachedAtomicStrategy) populateFromStore(ctx context.Context, productID string) error {
	_, err, _ := s.populate.Do(productID, func() (interface{}, error) {
		product, err := s.store.FindProduct(ctx, productID)
		if errors.Is(err, port.ErrProductNotFound) {
			return nil, newError(KindNotFound, "product not found")
		}
		if err != nil {
			return nil, wrapError(KindStoreFailure, "find product", err)
		}

		won, err := s.cache.SetStockNX(ctx, productID, product.Stock, s.ttl)
		if err != nil {
			return nil, wrapError(KindCacheFailure, "populate stock key", err)
		}
		if won {
			s.logger.Debug("populated cold cache",
				zap.String("product_id", productID),
				zap.Int("stock", product.Stock))
		}
		return nil, nil
	})
	return err
}
