package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/port"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/stockguard?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(36) PRIMARY KEY, name VARCHAR(255) NOT NULL,
			price DECIMAL(10,2) NOT NULL DEFAULT 0, stock INT NOT NULL,
			created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(36) PRIMARY KEY, user_id VARCHAR(36) NOT NULL,
			product_id VARCHAR(36) NOT NULL, status VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}

	return db
}

// createTestProduct inserts a fresh product row and registers cleanup of the
// row and its orders.
func createTestProduct(t *testing.T, db *sql.DB, stock int) string {
	t.Helper()

	id := uuid.New().String()
	now := time.Now()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO products (id, name, price, stock, created_at, updated_at)
		VALUES (?, 'Test Item', 9.99, ?, ?, ?)`, id, stock, now, now)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		db.ExecContext(ctx, `DELETE FROM orders WHERE product_id = ?`, id)
		db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	})

	return id
}

func TestFindProduct(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)
	productID := createTestProduct(t, db, 50)

	p, err := store.FindProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("FindProduct failed: %v", err)
	}
	if p.ID != productID {
		t.Errorf("expected id %s, got %s", productID, p.ID)
	}
	if p.Stock != 50 {
		t.Errorf("expected stock 50, got %d", p.Stock)
	}
}

func TestFindProduct_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)

	_, err := store.FindProduct(context.Background(), uuid.New().String())
	if !errors.Is(err, port.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got: %v", err)
	}
}

func TestUpdateStock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)
	productID := createTestProduct(t, db, 10)

	if err := store.UpdateStock(context.Background(), productID, 7); err != nil {
		t.Fatalf("UpdateStock failed: %v", err)
	}

	var stock int
	db.QueryRowContext(context.Background(), `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
	if stock != 7 {
		t.Errorf("expected stock 7, got %d", stock)
	}
}

func TestCreateOrder(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)
	productID := createTestProduct(t, db, 10)

	order := domain.Order{
		ID:        uuid.New().String(),
		UserID:    "test-user",
		ProductID: productID,
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: time.Now(),
	}
	if err := store.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	var status string
	db.QueryRowContext(context.Background(), `SELECT status FROM orders WHERE id = ?`, order.ID).Scan(&status)
	if status != "CONFIRMED" {
		t.Errorf("expected CONFIRMED order, got %q", status)
	}
}

func TestReserveUnit_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)
	productID := createTestProduct(t, db, 3)

	product, order, err := store.ReserveUnit(context.Background(), productID, "test-user")
	if err != nil {
		t.Fatalf("ReserveUnit failed: %v", err)
	}

	if product.Stock != 2 {
		t.Errorf("expected stock 2, got %d", product.Stock)
	}
	if order.Status != domain.OrderStatusConfirmed {
		t.Errorf("expected confirmed order, got %s", order.Status)
	}

	var count int
	db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM orders WHERE product_id = ?`, productID).Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 order row, got %d", count)
	}
}

func TestReserveUnit_OutOfStock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)
	productID := createTestProduct(t, db, 0)

	_, _, err := store.ReserveUnit(context.Background(), productID, "test-user")
	if !errors.Is(err, port.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got: %v", err)
	}

	// The aborted transaction must leave no order behind.
	var count int
	db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM orders WHERE product_id = ?`, productID).Scan(&count)
	if count != 0 {
		t.Errorf("expected 0 order rows, got %d", count)
	}

	var stock int
	db.QueryRowContext(context.Background(), `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
	if stock != 0 {
		t.Errorf("expected stock unchanged at 0, got %d", stock)
	}
}

func TestReserveUnit_UnknownProduct(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)

	_, _, err := store.ReserveUnit(context.Background(), uuid.New().String(), "test-user")
	if !errors.Is(err, port.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got: %v", err)
	}
}

func TestReserveUnit_Concurrent(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewMySQLStore(db)

	initialStock := 20
	totalRequests := 50
	productID := createTestProduct(t, db, initialStock)

	var confirmed, rejected atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.ReserveUnit(context.Background(), productID, "test-user")
			switch {
			case err == nil:
				confirmed.Add(1)
			case errors.Is(err, port.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if confirmed.Load() != int32(initialStock) {
		t.Errorf("expected %d confirmations, got %d", initialStock, confirmed.Load())
	}
	if rejected.Load() != int32(totalRequests-initialStock) {
		t.Errorf("expected %d rejections, got %d", totalRequests-initialStock, rejected.Load())
	}

	var stock int
	db.QueryRowContext(context.Background(), `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
	if stock != 0 {
		t.Errorf("expected final stock 0, got %d", stock)
	}

	var orders int
	db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM orders WHERE product_id = ?`, productID).Scan(&orders)
	if orders != initialStock {
		t.Errorf("expected %d order rows, got %d", initialStock, orders)
	}
}
