package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/port"
)

const productColumns = `id, name, price, stock, created_at, updated_at`

// MySQLStore is the durable ledger behind port.StockStore.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (m *MySQLStore) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// UpdateStock writes the stock column unconditionally. No WHERE clause on the
// current value: a concurrent decrement between the caller's read and this
// write gets clobbered. Naive path only.
func (m *MySQLStore) UpdateStock(ctx context.Context, productID string, stock int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET stock = ?, updated_at = NOW()
		WHERE id = ?`, stock, productID)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return nil
}

func (m *MySQLStore) CreateOrder(ctx context.Context, order domain.Order) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, product_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.ProductID, order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// ReserveUnit runs the whole claim in one transaction: existence check,
// conditional decrement, order insert, re-read. The conditional UPDATE's row
// lock makes the check-and-decrement atomic; matching zero rows aborts the
// transaction with port.ErrInsufficientStock and no order row.
func (m *MySQLStore) ReserveUnit(ctx context.Context, productID, userID string) (*domain.Product, *domain.Order, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, productID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, port.ErrProductNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("check product: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - 1, updated_at = NOW()
		WHERE id = ? AND stock >= 1`, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("decrement stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, nil, port.ErrInsufficientStock
	}

	order := domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: time.Now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, product_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.ProductID, order.Status, order.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert order: %w", err)
	}

	var p domain.Product
	err = tx.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("reread product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return &p, &order, nil
}
