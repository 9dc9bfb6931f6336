// Command seed resets the ledger and loads test users and products, and can
// prime the cache tier with the seeded stock.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/qhngn/stockguard/internal/adapter/storage"
	"github.com/qhngn/stockguard/internal/config"
)

var productNames = []string{
	"Wireless Headphones", "Mechanical Keyboard", "USB-C Hub",
	"Webcam HD", "Monitor Stand", "Mouse Pad XL",
	"Laptop Stand", "LED Desk Lamp", "Portable Charger", "Bluetooth Speaker",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id         VARCHAR(36) PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		price      DECIMAL(10,2) NOT NULL DEFAULT 0,
		stock      INT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         VARCHAR(36) PRIMARY KEY,
		user_id    VARCHAR(36) NOT NULL,
		product_id VARCHAR(36) NOT NULL,
		status     VARCHAR(16) NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id    VARCHAR(36) PRIMARY KEY,
		name  VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL
	)`,
}

func main() {
	users := flag.Int("users", 100, "number of test users to create")
	products := flag.Int("products", 10, "number of products to create")
	stock := flag.Int("stock", 1000, "initial stock per product")
	prime := flag.Bool("prime", false, "prime the cache with the seeded stock")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("failed to create schema: %v", err)
		}
	}

	log.Println("cleaning up old data")
	for _, table := range []string{"orders", "products", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			log.Fatalf("failed to clean %s: %v", table, err)
		}
	}

	log.Printf("seeding %d users", *users)
	for i := 0; i < *users; i++ {
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
			uuid.New().String(),
			fmt.Sprintf("testUser%d", i+1),
			fmt.Sprintf("testuser%d@example.com", i+1),
		)
		if err != nil {
			log.Fatalf("failed to insert user: %v", err)
		}
	}

	log.Printf("seeding %d products with stock %d", *products, *stock)
	now := time.Now()
	productIDs := make([]string, 0, *products)
	for i := 0; i < *products; i++ {
		id := uuid.New().String()
		productIDs = append(productIDs, id)
		_, err := db.ExecContext(ctx, `
			INSERT INTO products (id, name, price, stock, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			productNames[i%len(productNames)],
			10+rand.Float64()*200,
			*stock,
			now, now,
		)
		if err != nil {
			log.Fatalf("failed to insert product: %v", err)
		}
	}

	if *prime {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		cache := storage.NewRedisCache(rdb)
		for _, id := range productIDs {
			if err := cache.SetStock(ctx, id, *stock, cfg.Reserve.CacheTTL); err != nil {
				log.Fatalf("failed to prime cache for %s: %v", id, err)
			}
		}
		log.Printf("primed cache for %d products", len(productIDs))
	}

	log.Printf("done; sample product id: %s", productIDs[0])
}
