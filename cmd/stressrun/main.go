// Command stressrun fires concurrent reservations at one strategy against
// real Redis and MySQL and checks the at-most-stock-winners invariant.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qhngn/stockguard/internal/adapter/metrics"
	"github.com/qhngn/stockguard/internal/adapter/storage"
	"github.com/qhngn/stockguard/internal/config"
	"github.com/qhngn/stockguard/internal/core/reserve"
)

func main() {
	strategyFlag := flag.String("strategy", "cached", "strategy to exercise: naive, transactional or cached")
	stock := flag.Int("stock", 20, "initial stock")
	requests := flag.Int("requests", 50, "number of concurrent reservations")
	productID := flag.String("product", "stress-item", "product id to hammer")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	mode, err := reserve.ParseMode(*strategyFlag)
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	if err := resetFixture(ctx, db, rdb, *productID, *stock); err != nil {
		log.Fatalf("failed to reset fixture: %v", err)
	}

	store := storage.NewMySQLStore(db)
	cache := storage.NewRedisCache(rdb)
	coordinator := reserve.NewCoordinator(store, cache, metrics.NewPrometheus(), mode, cfg.Reserve.CacheTTL, zap.NewNop())
	strategy, _ := coordinator.Strategy(mode)

	var confirmed, outOfStock, failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			_, err := strategy.Reserve(ctx, fmt.Sprintf("user-%d", userID), *productID)
			switch {
			case err == nil:
				confirmed.Add(1)
			case reserve.KindOf(err) == reserve.KindOutOfStock:
				outOfStock.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	var finalStock int
	if err := db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, *productID).Scan(&finalStock); err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	var orderCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE product_id = ?`, *productID).Scan(&orderCount); err != nil {
		log.Fatalf("failed to count orders: %v", err)
	}

	fmt.Println("========== STRESS RUN RESULTS ==========")
	fmt.Printf("Strategy:        %s\n", mode)
	fmt.Printf("Initial Stock:   %d\n", *stock)
	fmt.Printf("Total Requests:  %d\n", *requests)
	fmt.Printf("Confirmed:       %d\n", confirmed.Load())
	fmt.Printf("Out of Stock:    %d\n", outOfStock.Load())
	fmt.Printf("Failed:          %d\n", failed.Load())
	fmt.Printf("Orders in DB:    %d\n", orderCount)
	fmt.Printf("Final Stock:     %d\n", finalStock)
	fmt.Printf("Duration:        %v\n", elapsed)
	fmt.Println("========================================")

	if mode == reserve.ModeNaive {
		// Negative control: the point is to show whether the harness can
		// catch the oversell, not to pass.
		if int(confirmed.Load()) > *stock {
			fmt.Printf("RACE DETECTED: %d confirmations for %d units\n", confirmed.Load(), *stock)
		} else {
			fmt.Println("no oversell observed this run")
		}
		return
	}

	switch {
	case int(confirmed.Load()) > *stock:
		fmt.Printf("FAIL: %d confirmations exceed stock %d\n", confirmed.Load(), *stock)
	case finalStock < 0:
		fmt.Printf("FAIL: final stock is negative (%d)\n", finalStock)
	case orderCount != int(confirmed.Load()):
		fmt.Printf("FAIL: %d orders recorded for %d confirmations\n", orderCount, confirmed.Load())
	default:
		fmt.Printf("PASS: %d winners for %d units, ledger consistent\n", confirmed.Load(), *stock)
	}
}

func resetFixture(ctx context.Context, db *sql.DB, rdb *redis.Client, productID string, stock int) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM orders WHERE product_id = ?`, productID); err != nil {
		return err
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, stock, now, productID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		_, err = db.ExecContext(ctx, `
			INSERT INTO products (id, name, price, stock, created_at, updated_at)
			VALUES (?, 'Stress Item', 0, ?, ?, ?)`, productID, stock, now, now)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}

	// The cached strategy must start cold.
	return rdb.Del(ctx, "product:"+productID).Err()
}
