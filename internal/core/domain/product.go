package domain

import "time"

// Product is the single source of truth for inventory. Stock never goes
// negative in the ledger.
type Product struct {
	ID        string
	Name      string
	Price     float64
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
