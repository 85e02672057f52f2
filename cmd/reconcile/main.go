// Command reconcile repairs novel chapter counts left stale by partial saves.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/config"
	"github.com/binhbb2204/nocturne/pkg/database"
	"github.com/binhbb2204/nocturne/pkg/logger"
)

func main() {
	author := flag.String("author", "", "only reconcile novels by this author id")
	limit := flag.Int("limit", 0, "maximum number of novels to scan (0 = all)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed_to_load_config", "error", err.Error())
		os.Exit(1)
	}
	logger.Init(logger.LogLevel(cfg.LogLevel), cfg.JSONLogs(), os.Stdout)
	log := logger.GetLogger().WithContext("component", "reconcile")

	if err := database.InitDatabase(cfg.DBPath); err != nil {
		log.Error("failed_to_initialize_database", "error", err.Error(), "path", cfg.DBPath)
		os.Exit(1)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gw := gateway.NewSQLiteGateway(database.DB)
	repaired, err := gateway.ReconcileAll(ctx, gw, gateway.NovelFilter{AuthorID: *author, Limit: *limit}, log)
	if err != nil {
		log.Error("reconcile_failed", "error", err.Error(), "repaired", repaired)
		os.Exit(1)
	}
	log.Info("reconcile_complete", "repaired", repaired)
}
