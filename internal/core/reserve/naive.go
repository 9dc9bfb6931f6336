package reserve

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/port"
)

// NaiveStrategy is the read-modify-write baseline. The stock check and the
// write are two independent store calls, so concurrent callers can both
// observe stock 1 and both decrement. It is retained as a negative control
// for the race-detection harness and must not serve production traffic.
type NaiveStrategy struct {
	store   port.StockStore
	metrics port.MetricsSink
	logger  *zap.Logger
}

func NewNaiveStrategy(store port.StockStore, metrics port.MetricsSink, logger *zap.Logger) *NaiveStrategy {
	return &NaiveStrategy{store: store, metrics: metrics, logger: logger}
}

func (s *NaiveStrategy) Reserve(ctx context.Context, userID, productID string) (*domain.Reservation, error) {
	if err := validateInput(userID, productID); err != nil {
		return nil, err
	}

	product, err := s.store.FindProduct(ctx, productID)
	if errors.Is(err, port.ErrProductNotFound) {
		return nil, newError(KindNotFound, "product not found")
	}
	if err != nil {
		s.metrics.IncOrder(port.OrderFailed)
		return nil, wrapError(KindStoreFailure, "find product", err)
	}

	if product.Stock <= 0 {
		s.metrics.IncOrder(port.OrderFailed)
		return nil, newError(KindOutOfStock, "out of stock")
	}

	// The race window: the write trusts the read above. Another caller can
	// decrement between the two. The computed value itself stays >= 0.
	newStock := product.Stock - 1
	if err := s.store.UpdateStock(ctx, productID, newStock); err != nil {
		s.metrics.IncOrder(port.OrderFailed)
		return nil, wrapError(KindStoreFailure, "update stock", err)
	}

	order := domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.metrics.IncOrder(port.OrderFailed)
		return nil, wrapError(KindStoreFailure, "create order", err)
	}

	s.logger.Debug("naive reservation confirmed",
		zap.String("order_id", order.ID),
		zap.String("product_id", productID),
		zap.Int("stock", newStock))

	s.metrics.IncOrder(port.OrderConfirmed)
	s.metrics.SetStockLevel(productID, newStock)

	product.Stock = newStock
	return &domain.Reservation{Order: order, Product: *product}, nil
}
