package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/stockline-app/stockline-backend/api/routes"
	"github.com/stockline-app/stockline-backend/internal/allowance"
	"github.com/stockline-app/stockline-backend/internal/inventory"
	"github.com/stockline-app/stockline-backend/internal/ledger"
	"github.com/stockline-app/stockline-backend/internal/notifications"
	"github.com/stockline-app/stockline-backend/internal/orders"
	"github.com/stockline-app/stockline-backend/internal/pickups"
	"github.com/stockline-app/stockline-backend/internal/transfers"
	"github.com/stockline-app/stockline-backend/internal/users"
	"github.com/stockline-app/stockline-backend/pkg/config"
	"github.com/stockline-app/stockline-backend/pkg/db"
	"github.com/stockline-app/stockline-backend/pkg/logger"
	"github.com/stockline-app/stockline-backend/pkg/migrate"
	"github.com/stockline-app/stockline-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	conn := dbClient.DB()

	userRepo := users.NewRepository(conn)
	pickupRepo := pickups.NewRepository(conn)
	notifRepo := notifications.NewRepository(conn)

	fanout, err := notifications.NewFanout(notifRepo, redisClient, logg)
	if err != nil {
		return routes.Services{}, err
	}
	notifService, err := notifications.NewService(notifRepo)
	if err != nil {
		return routes.Services{}, err
	}

	allowanceService, err := allowance.NewService(allowance.NewRepository(conn), dbClient, cfg.Pickup)
	if err != nil {
		return routes.Services{}, err
	}

	pickupService, err := pickups.NewService(pickupRepo, userRepo, allowanceService, fanout, dbClient, cfg.Pickup, logg)
	if err != nil {
		return routes.Services{}, err
	}

	commission, err := ledger.New(conn)
	if err != nil {
		return routes.Services{}, err
	}
	orderService, err := orders.NewService(orders.NewRepository(conn), pickupRepo, commission, fanout, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	transferService, err := transfers.NewService(pickupRepo, userRepo, fanout, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	inventoryService, err := inventory.NewService(conn, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Pickups:       pickupService,
		Orders:        orderService,
		Transfers:     transferService,
		Allowance:     allowanceService,
		Inventory:     inventoryService,
		Notifications: notifService,
	}, nil
}
