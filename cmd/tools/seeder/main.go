package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(ctx, pool)
	seedCoupons(ctx, pool)
	seedSubscribers(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding products...")
	products := []struct {
		ID            string
		Title         string
		Author        string
		Category      string
		BasePrice     int64
		SalePrice     *int64
		BulkThreshold *int
		BulkPercent   *int
		Membership    bool
	}{
		{"dune", "Dune", "Frank Herbert", "scifi", 1499, cents(1199), intp(3), intp(10), false},
		{"hyperion", "Hyperion", "Dan Simmons", "scifi", 1299, nil, intp(5), intp(15), false},
		{"pride-prejudice", "Pride and Prejudice", "Jane Austen", "classics", 899, nil, nil, nil, false},
		{"clean-architecture", "Clean Architecture", "Robert C. Martin", "technical", 3499, cents(2999), intp(10), intp(20), false},
		{"annual-membership", "BookHaven Annual Membership", "", "membership", 4999, nil, nil, nil, true},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, title, author, category, base_price_cents, sale_price_cents,
				bulk_threshold, bulk_percent, membership_product, in_stock)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				base_price_cents = EXCLUDED.base_price_cents,
				sale_price_cents = EXCLUDED.sale_price_cents,
				updated_at = now()`,
			p.ID, p.Title, p.Author, p.Category, p.BasePrice, p.SalePrice, p.BulkThreshold, p.BulkPercent, p.Membership)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.ID, err)
		}
	}
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding coupons...")
	expiry := time.Now().AddDate(1, 0, 0)
	coupons := []struct {
		Code        string
		Kind        string
		Value       int64
		MinOrder    int64
		MaxDiscount int64
		ExpiresAt   *time.Time
	}{
		{"welcome10", "percent", 10, 0, 1000, &expiry},
		{"summer25", "percent", 25, 5000, 2500, &expiry},
		{"fivebucks", "fixed", 500, 2000, 0, nil},
	}
	for _, c := range coupons {
		_, err := pool.Exec(ctx, `
			INSERT INTO coupons (code, kind, value, min_order_cents, max_discount_cents, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (lower(code)) DO UPDATE SET
				value = EXCLUDED.value,
				min_order_cents = EXCLUDED.min_order_cents,
				max_discount_cents = EXCLUDED.max_discount_cents,
				expires_at = EXCLUDED.expires_at,
				updated_at = now()`,
			c.Code, c.Kind, c.Value, c.MinOrder, c.MaxDiscount, c.ExpiresAt)
		if err != nil {
			log.Fatalf("Failed to seed coupon %s: %v", c.Code, err)
		}
	}
}

func seedSubscribers(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding subscribers...")
	subscribers := []struct {
		Email string
		Tier  string
	}{
		{"basic@example.com", "basic"},
		{"premium@example.com", "premium"},
		{"ultimate@example.com", "ultimate"},
	}
	for _, s := range subscribers {
		_, err := pool.Exec(ctx, `
			INSERT INTO subscribers (email, tier, newsletter)
			VALUES (lower($1), $2, TRUE)
			ON CONFLICT (lower(email)) DO UPDATE SET tier = EXCLUDED.tier, updated_at = now()`,
			s.Email, s.Tier)
		if err != nil {
			log.Fatalf("Failed to seed subscriber %s: %v", s.Email, err)
		}
	}
}

func cents(v int64) *int64 { return &v }
func intp(v int) *int      { return &v }
