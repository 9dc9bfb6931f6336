package reserve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/port"
)

// barrier blocks every participant until all n have arrived, forcing the
// interleaving a race test needs.
type barrier struct {
	n    int
	mu   sync.Mutex
	seen int
	c    chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{n: n, c: make(chan struct{})}
}

func (b *barrier) wait() {
	b.mu.Lock()
	b.seen++
	if b.seen == b.n {
		close(b.c)
	}
	b.mu.Unlock()
	<-b.c
}

// Mock StockStore
type mockStore struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	orders   []domain.Order
	orderSeq int

	findCalls    int
	reserveCalls int

	// findBarrier makes every FindProduct finish its read before any caller
	// proceeds; findDelay holds the result back after the barrier.
	findBarrier *barrier
	findDelay   time.Duration

	findErr    error
	updateErr  error
	reserveErr error
}

func newMockStore(products ...domain.Product) *mockStore {
	m := &mockStore{products: make(map[string]*domain.Product)}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *mockStore) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	m.findCalls++
	p, ok := m.products[productID]
	var snapshot domain.Product
	if ok {
		snapshot = *p
	}
	err := m.findErr
	m.mu.Unlock()

	if m.findBarrier != nil {
		m.findBarrier.wait()
	}
	if m.findDelay > 0 {
		time.Sleep(m.findDelay)
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, port.ErrProductNotFound
	}
	return &snapshot, nil
}

func (m *mockStore) UpdateStock(ctx context.Context, productID string, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if p, ok := m.products[productID]; ok {
		p.Stock = stock
	}
	return nil
}

func (m *mockStore) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockStore) ReserveUnit(ctx context.Context, productID, userID string) (*domain.Product, *domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reserveCalls++
	if m.reserveErr != nil {
		return nil, nil, m.reserveErr
	}

	p, ok := m.products[productID]
	if !ok {
		return nil, nil, port.ErrProductNotFound
	}
	if p.Stock < 1 {
		return nil, nil, port.ErrInsufficientStock
	}

	p.Stock--
	m.orderSeq++
	order := domain.Order{
		ID:        fmt.Sprintf("order-%d", m.orderSeq),
		UserID:    userID,
		ProductID: productID,
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: time.Now(),
	}
	m.orders = append(m.orders, order)

	snapshot := *p
	return &snapshot, &order, nil
}

func (m *mockStore) stockOf(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		return p.Stock
	}
	return -1
}

func (m *mockStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *mockStore) findCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

// Mock StockCache
type mockCache struct {
	mu     sync.Mutex
	values map[string]int

	setNXCalls int

	// decBarrier blocks every miss until all participants have observed the
	// cold cache; dropWrites simulates a cache that loses every populate.
	decBarrier *barrier
	dropWrites bool
	decErr     error
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string]int)}
}

func (c *mockCache) DecrementIfPositive(ctx context.Context, productID string) (int64, error) {
	c.mu.Lock()
	if c.decErr != nil {
		err := c.decErr
		c.mu.Unlock()
		return 0, err
	}
	v, ok := c.values[productID]
	if ok {
		if v <= 0 {
			c.mu.Unlock()
			return port.CacheExhausted, nil
		}
		v--
		c.values[productID] = v
		c.mu.Unlock()
		return int64(v), nil
	}
	c.mu.Unlock()

	if c.decBarrier != nil {
		c.decBarrier.wait()
	}
	return port.CacheMiss, nil
}

func (c *mockCache) SetStockNX(ctx context.Context, productID string, stock int, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNXCalls++
	if c.dropWrites {
		return true, nil
	}
	if _, ok := c.values[productID]; ok {
		return false, nil
	}
	c.values[productID] = stock
	return true, nil
}

func (c *mockCache) SetStock(ctx context.Context, productID string, stock int, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[productID] = stock
	return nil
}

func (c *mockCache) GetStock(ctx context.Context, productID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[productID]
	return v, ok, nil
}

// expire drops the entry, standing in for the TTL elapsing.
func (c *mockCache) expire(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, productID)
}

func (c *mockCache) value(productID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[productID]
	return v, ok
}

// Mock MetricsSink
type mockMetrics struct {
	mu        sync.Mutex
	confirmed int
	failed    int
	stock     map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{stock: make(map[string]int)}
}

func (m *mockMetrics) IncOrder(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == port.OrderConfirmed {
		m.confirmed++
	} else {
		m.failed++
	}
}

func (m *mockMetrics) SetStockLevel(productID string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[productID] = stock
}

func (m *mockMetrics) counts() (confirmed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmed, m.failed
}
