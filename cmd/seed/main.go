package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/entregaops-platform/api/internal/order"
)

type seedOrder struct {
	number    string
	customer  string
	orderType order.Type
	daysAhead *int
	archived  bool
}

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&existing); err != nil {
		log.Fatalf("count orders: %v", err)
	}
	if existing > 0 {
		fmt.Printf("Seed skipped: orders table already has %d rows\n", existing)
		return
	}

	orders := []seedOrder{
		{number: "DEMO-1001", customer: "Carmen Ruiz", orderType: order.TypeInstallation, daysAhead: intPtr(2)},
		{number: "DEMO-1002", customer: "Javier Ortega", orderType: order.TypeComplete, daysAhead: intPtr(0)},
		{number: "DEMO-1003", customer: "Lucia Fernandez", orderType: order.TypePickup, daysAhead: intPtr(5)},
		{number: "DEMO-1004", customer: "Miguel Santos", orderType: order.TypePostdated, daysAhead: intPtr(14)},
		{number: "DEMO-1005", customer: "Ana Morales", orderType: order.TypePartial},
		{number: "DEMO-1006", customer: "Pedro Camacho", orderType: order.TypeComplete, daysAhead: intPtr(-3), archived: true},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	sourceFile := "seed"
	for _, o := range orders {
		var deliveryDate *time.Time
		if o.daysAhead != nil {
			d := order.StartOfDay(time.Now().AddDate(0, 0, *o.daysAhead))
			deliveryDate = &d
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (order_number, customer_name, order_type, delivery_date, archived, source_file)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, o.number, o.customer, string(o.orderType), deliveryDate, o.archived, sourceFile)
		if err != nil {
			log.Fatalf("insert order %s: %v", o.number, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit tx: %v", err)
	}

	fmt.Printf("Seed completed: %d demo orders inserted\n", len(orders))
}

func intPtr(v int) *int {
	return &v
}
