package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"stockbook/internal/adapters/cli"
	"stockbook/internal/adapters/repl"
	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/core"
	"stockbook/internal/db"
	"stockbook/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	owner := flag.Int("owner", envOwner(), "owner user ID (defaults to $OWNER_ID)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: app [--owner N] [<command> [args]]\nWithout a command an interactive session starts.\n%s\n", cli.Usage)
	}
	flag.Parse()
	if *owner <= 0 {
		log.Fatal("owner user ID required: pass --owner or set OWNER_ID")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.Options{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	stocks := core.NewStockService(pool, logger)
	invoices := core.NewInvoiceService(pool, stocks, logger)
	svc := app.NewAppService(app.Services{
		Stocks:    stocks,
		Invoices:  invoices,
		Numbering: core.NewNumberingService(pool),
		Reporting: core.NewReportingService(invoices, stocks, cfg.LowStockThreshold, logger),
		Business:  core.NewBusinessService(pool),
		Users:     core.NewUserService(pool),
	}, cfg.LowStockThreshold)

	if flag.NArg() == 0 {
		err = repl.Run(ctx, svc, *owner, os.Stdin, os.Stdout)
	} else {
		err = cli.Run(ctx, svc, *owner, flag.Args(), os.Stdout)
	}
	if err != nil {
		pool.Close()
		log.Fatal(err)
	}
}

func envOwner() int {
	n, _ := strconv.Atoi(os.Getenv("OWNER_ID"))
	return n
}
