package reserve

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/port"
)

// TransactionalStrategy delegates the whole check-and-decrement to one
// serializable store transaction. Correct under arbitrary concurrency; its
// throughput is bounded by contention on the ledger.
type TransactionalStrategy struct {
	store   port.StockStore
	metrics port.MetricsSink
	logger  *zap.Logger
}

func NewTransactionalStrategy(store port.StockStore, metrics port.MetricsSink, logger *zap.Logger) *TransactionalStrategy {
	return &TransactionalStrategy{store: store, metrics: metrics, logger: logger}
}

func (s *TransactionalStrategy) Reserve(ctx context.Context, userID, productID string) (*domain.Reservation, error) {
	if err := validateInput(userID, productID); err != nil {
		return nil, err
	}

	product, order, err := s.store.ReserveUnit(ctx, productID, userID)
	if errors.Is(err, port.ErrProductNotFound) {
		return nil, newError(KindNotFound, "product not found")
	}
	if errors.Is(err, port.ErrInsufficientStock) {
		s.metrics.IncOrder(port.OrderFailed)
		return nil, newError(KindOutOfStock, "out of stock")
	}
	if err != nil {
		s.metrics.IncOrder(port.OrderFailed)
		return nil, wrapError(KindStoreFailure, "reserve unit", err)
	}

	s.logger.Debug("transactional reservation confirmed",
		zap.String("order_id", order.ID),
		zap.String("product_id", productID),
		zap.Int("stock", product.Stock))

	s.metrics.IncOrder(port.OrderConfirmed)
	s.metrics.SetStockLevel(productID, product.Stock)

	return &domain.Reservation{Order: *order, Product: *product}, nil
}
