package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/rocketshop/shopcart/internal/adapter/events"
	"github.com/rocketshop/shopcart/internal/adapter/handler"
	"github.com/rocketshop/shopcart/internal/adapter/storage"
	"github.com/rocketshop/shopcart/internal/config"
	"github.com/rocketshop/shopcart/internal/core/service"
	"github.com/rocketshop/shopcart/internal/port"
	"github.com/rocketshop/shopcart/migrations"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		slog.Error("open mysql", slog.String("error", err.Error()))
		os.Exit(1)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		slog.Error("ping mysql", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("connected to mysql")

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		slog.Error("goose dialect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := goose.Up(db, "."); err != nil {
		slog.Error("run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("migrations applied")

	// Redis is an optional fast path; the server runs without it.
	var cache port.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", slog.String("error", err.Error()))
		rdb.Close()
		rdb = nil
	} else {
		cache = storage.NewRedisCache(rdb)
		slog.Info("connected to redis")
	}

	// Kafka is optional as well.
	var publisher port.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			slog.Warn("kafka unavailable, events disabled", slog.String("error", err.Error()))
		} else {
			publisher = p
			slog.Info("connected to kafka")
		}
	}

	store := storage.NewMySQLStore(db)
	authService := service.NewAuthService(store, []byte(cfg.JWTSecret), cfg.TokenTTL)
	inventory := service.NewInventoryLedger(store, cache)
	catalog := service.NewCatalogService(store, cache)
	carts := service.NewCartService(store, cache, publisher)
	orders := service.NewOrderService(store, cache)

	if err := authService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("bootstrap admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	h := handler.NewHandler(authService, catalog, carts, orders, inventory)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h.Routes(cfg.GinMode),
	}

	go func() {
		slog.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", slog.String("error", err.Error()))
	}

	if publisher != nil {
		publisher.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	slog.Info("connections closed")
}
