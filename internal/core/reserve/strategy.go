package reserve

import (
	"context"

	"github.com/qhngn/stockguard/internal/core/domain"
)

// Strategy reserves one unit of stock on behalf of a user and records the
// confirmed order. Implementations differ only in the correctness/throughput
// trade-off they make, never in the contract.
type Strategy interface {
	Reserve(ctx context.Context, userID, productID string) (*domain.Reservation, error)
}

func validateInput(userID, productID string) error {
	if userID == "" {
		return newError(KindInvalidInput, "userId is required")
	}
	if productID == "" {
		return newError(KindInvalidInput, "productId is required")
	}
	return nil
}
