// migrate applies or rolls back the embedded schema migrations.
//
// Usage: go run ./cmd/migrate [up|down|version]
package main

import (
	"errors"
	"log"
	"os"

	"stockbook/internal/config"
	"stockbook/internal/db"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Println("[VERSION] no migrations applied")
			return
		}
		if verr != nil {
			log.Fatalf("[VERSION] %v", verr)
		}
		log.Printf("[VERSION] %d (dirty=%t)", v, dirty)
		return
	default:
		log.Fatalf("unknown command %q: want up, down or version", cmd)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("[SKIP] schema already up to date")
		return
	}
	if err != nil {
		log.Fatalf("[FAIL] %s: %v", cmd, err)
	}
	log.Printf("[DONE] migrate %s", cmd)
}
