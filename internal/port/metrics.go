package port

// Order outcome labels reported to the metrics sink.
const (
	OrderConfirmed = "CONFIRMED"
	OrderFailed    = "FAILED"
)

// MetricsSink receives outcome counts and stock gauges. Implementations are
// fire-and-forget: they must never block or return an error to the caller.
type MetricsSink interface {
	// IncOrder increments the order counter for the given outcome label
	IncOrder(status string)

	// SetStockLevel records the current stock of a product
	SetStockLevel(productID string, stock int)
}
