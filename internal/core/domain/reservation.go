package domain

// Reservation is the outcome of a successful reserve call: the order that was
// created and the product as read back after the decrement.
type Reservation struct {
	Order   Order
	Product Product
}
