package port

import (
	"context"
	"errors"

	"github.com/qhngn/stockguard/internal/core/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockStore is the durable ledger of products and orders.
type StockStore interface {
	// FindProduct retrieves a product by ID, ErrProductNotFound if absent
	FindProduct(ctx context.Context, productID string) (*domain.Product, error)

	// UpdateStock overwrites the stock value with no condition attached.
	// Only the naive strategy uses it; the write can clobber concurrent
	// decrements.
	UpdateStock(ctx context.Context, productID string, stock int) error

	// CreateOrder persists a confirmed order
	CreateOrder(ctx context.Context, order domain.Order) error

	// ReserveUnit decrements stock iff stock >= 1 and inserts the order in
	// one atomic transaction, returning the updated product and the
	// created order. Returns ErrInsufficientStock when the conditional
	// update matches no row.
	ReserveUnit(ctx context.Context, productID, userID string) (*domain.Product, *domain.Order, error)
}
