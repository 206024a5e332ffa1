// seed creates a demo user with a business profile and a handful of stock items.
// Running it again against a seeded database fails on the duplicate username.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"stockbook/internal/config"
	"stockbook/internal/core"
	"stockbook/internal/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.Options{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "demo-password"
	}

	log.Println("Creating demo user...")
	user, err := core.NewUserService(pool).CreateUser(ctx, "demo", "demo@example.com", password)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	log.Println("Saving business profile...")
	_, err = core.NewBusinessService(pool).SaveBusiness(ctx, user.ID, core.BusinessInput{
		Name:         "Corner Hardware",
		Type:         "Retail",
		Address:      "12 High Street",
		Phone:        "+44 20 7946 0000",
		Email:        "shop@example.com",
		VATNumber:    "GB123456789",
		ReturnPolicy: "Returns accepted within 30 days with receipt.",
	})
	if err != nil {
		log.Fatalf("Failed to save business: %v", err)
	}

	log.Println("Adding stock...")
	stocks := core.NewStockService(pool, zap.NewNop())
	for _, in := range []core.StockInput{
		{Barcode: "4006381333931", Name: "Claw Hammer", Category: "Tools", SKU: "HAM-01", Quantity: 20,
			StockRate: decimal.RequireFromString("6.50"), SellingRate: decimal.RequireFromString("12.00"), VAT: decimal.NewFromInt(20)},
		{Barcode: "4006381333948", Name: "Wood Screws 100pk", Category: "Fixings", SKU: "SCR-100", Quantity: 60,
			StockRate: decimal.RequireFromString("1.20"), SellingRate: decimal.RequireFromString("3.50"), VAT: decimal.NewFromInt(20)},
		{Barcode: "4006381333955", Name: "Tape Measure 5m", Category: "Tools", SKU: "TAPE-5", Quantity: 3,
			StockRate: decimal.RequireFromString("2.80"), SellingRate: decimal.RequireFromString("7.99"), VAT: decimal.NewFromInt(20)},
	} {
		if _, err := stocks.CreateStock(ctx, user.ID, in); err != nil {
			log.Fatalf("Failed to add %s: %v", in.Name, err)
		}
	}

	log.Printf("Seed complete. Log in as demo (user ID %d).", user.ID)
}
