package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/ariefcatur/go-shop-backend.git/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("usage: migrate <up|down|version>")
	}

	cfg := config.Load()
	src := os.Getenv("MIGRATIONS_PATH")
	if src == "" {
		src = "file://migrations"
	}

	m, err := migrate.New(src, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("migrate init: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Println("no pending migrations")
				return
			}
			log.Fatalf("migrate up: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := m.Steps(-1); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Println("no migrations to rollback")
				return
			}
			log.Fatalf("migrate down: %v", err)
		}
		log.Println("migration rolled back")
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("no migrations applied yet")
			return
		}
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		log.Printf("version=%d dirty=%v", v, dirty)
	default:
		log.Fatalf("unknown command %q", args[0])
	}
}
