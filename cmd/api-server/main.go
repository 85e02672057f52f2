package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/binhbb2204/nocturne/internal/events"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/internal/server"
	"github.com/binhbb2204/nocturne/pkg/config"
	"github.com/binhbb2204/nocturne/pkg/database"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed_to_load_config", "error", err.Error())
		os.Exit(1)
	}

	logger.Init(logger.LogLevel(cfg.LogLevel), cfg.JSONLogs(), os.Stdout)
	log := logger.GetLogger().WithContext("component", "api_server")
	log.Info("starting_api_server", "version", "1.0.0")
	if logger.LogLevel(cfg.LogLevel) != logger.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.InitDatabase(cfg.DBPath); err != nil {
		log.Error("failed_to_initialize_database", "error", err.Error(), "path", cfg.DBPath)
		os.Exit(1)
	}
	defer database.Close()

	if cfg.UsingDefaultSecret() {
		log.Warn("using_default_jwt_secret", "message", "Set JWT_SECRET environment variable in production!")
	}

	store := gateway.NewSQLiteGateway(database.DB)
	if cfg.SeedDemo {
		n, err := gateway.SeedDemo(context.Background(), store)
		if err != nil {
			log.Error("demo_seed_failed", "error", err.Error())
		} else {
			log.Info("demo_seeded", "novels", n)
		}
	}
	breaker := gateway.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout)
	gw := gateway.Guard(store, breaker, cfg.GatewayTimeout, log)

	var blacklist identity.Blacklist
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		defer rdb.Close()
		blacklist = identity.NewRedisBlacklist(rdb)
		log.Info("token_blacklist_redis", "addr", cfg.RedisURL)
	}
	provider := identity.NewProvider(database.DB, cfg.JWTSecret, blacklist, log)

	bus := events.NewBus(log)
	bus.Start()
	defer bus.Stop()

	srv := server.New(server.Options{
		DB:          database.DB,
		Gateway:     gw,
		Identity:    provider,
		Bus:         bus,
		FrontendURL: cfg.FrontendURL,
		Log:         log,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("api_server_listening", "port", cfg.APIPort, "lan_address", utils.GetLocalIP())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed_to_start_api_server", "error", err.Error())
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	log.Info("shutdown_signal_received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("shutdown_timeout_forcing_stop", "error", err.Error())
	}
	log.Info("graceful_shutdown_complete")
}
