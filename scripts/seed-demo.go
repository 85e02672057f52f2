//go:build ignore

// Seeds the bundled demo novels into the SQLite store.
//
//	go run scripts/seed-demo.go
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/config"
	"github.com/binhbb2204/nocturne/pkg/database"
)

func main() {
	fmt.Println("=== Nocturne Demo Seeder ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := database.InitDatabase(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	n, err := gateway.SeedDemo(context.Background(), gateway.NewSQLiteGateway(database.DB))
	if err != nil {
		log.Fatalf("Failed to seed demo novels: %v", err)
	}
	fmt.Printf("Seeded %d demo novel(s) into %s\n", n, cfg.DBPath)
}
