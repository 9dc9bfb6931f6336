package reserve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/port"
)

// Mode selects which reservation strategy serves a request.
type Mode string

const (
	ModeNaive         Mode = "naive"
	ModeTransactional Mode = "transactional"
	ModeCachedAtomic  Mode = "cached"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNaive, ModeTransactional, ModeCachedAtomic:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown reservation strategy %q", s)
}

// Coordinator owns the three strategies and the dependencies they share. It
// holds no state beyond those references and is safe for concurrent use.
type Coordinator struct {
	strategies  map[Mode]Strategy
	defaultMode Mode
}

func NewCoordinator(store port.StockStore, cache port.StockCache, metrics port.MetricsSink, defaultMode Mode, cacheTTL time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		strategies: map[Mode]Strategy{
			ModeNaive:         NewNaiveStrategy(store, metrics, logger),
			ModeTransactional: NewTransactionalStrategy(store, metrics, logger),
			ModeCachedAtomic:  NewCachedAtomicStrategy(store, cache, metrics, cacheTTL, logger),
		},
		defaultMode: defaultMode,
	}
}

// Reserve dispatches to the configured default strategy.
func (c *Coordinator) Reserve(ctx context.Context, userID, productID string) (*domain.Reservation, error) {
	return c.strategies[c.defaultMode].Reserve(ctx, userID, productID)
}

// Strategy exposes a specific variant for callers that address one directly.
func (c *Coordinator) Strategy(mode Mode) (Strategy, bool) {
	s, ok := c.strategies[mode]
	return s, ok
}
