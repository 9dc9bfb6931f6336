package domain

import "time"

type OrderStatus string

// Orders are created in their terminal state: one confirmed order per
// successful stock decrement, immutable afterwards.
const OrderStatusConfirmed OrderStatus = "CONFIRMED"

type Order struct {
	ID        string
	UserID    string
	ProductID string
	Status    OrderStatus
	CreatedAt time.Time
}
