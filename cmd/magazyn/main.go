package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkowalczyk/magazyn/internal/api"
	"github.com/mkowalczyk/magazyn/internal/auth"
	"github.com/mkowalczyk/magazyn/internal/config"
	"github.com/mkowalczyk/magazyn/internal/repository/postgres"
	"github.com/mkowalczyk/magazyn/internal/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Info("starting magazyn",
		"listen", cfg.ListenAddr(),
		"db_host", cfg.DB.Host,
	)

	// Run migrations
	log.Info("running database migrations")
	if err := postgres.RunMigrations(cfg.DB.DSN()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations completed")

	// Database connection pool
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	log.Info("database connected")

	// Repositories
	store := postgres.NewStore(pool)

	// Services
	userSvc := service.NewUserService(store.Users(), store.Activity(), log)
	deviceSvc := service.NewDeviceService(store, store.Devices(), store.Activity(), log)
	assignmentSvc := service.NewAssignmentService(store, store.Devices(), store.Users(), log)
	returnsSvc := service.NewReturnsService(store, store.Devices(), store.Returns(), log)
	inventorySvc := service.NewInventoryService(store.Devices(), store.Users(), log)
	historySvc := service.NewHistoryService(store.Devices(), store.Installations(), store.Activity(), log)

	// Bootstrap admin account
	if err := userSvc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)

	// Router
	router := api.NewRouter(api.RouterDeps{
		UserSvc:       userSvc,
		DeviceSvc:     deviceSvc,
		AssignmentSvc: assignmentSvc,
		ReturnsSvc:    returnsSvc,
		InventorySvc:  inventorySvc,
		HistorySvc:    historySvc,
		JWTManager:    jwtMgr,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
		Logger:        log,
	})

	// HTTP Server
	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
