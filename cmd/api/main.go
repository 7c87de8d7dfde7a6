package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/carins/carins-backend/api/routes"
	"github.com/carins/carins-backend/internal/app"
	"github.com/carins/carins-backend/pkg/config"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/metrics"
	"github.com/carins/carins-backend/pkg/migrate"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
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

	redisClient, err := app.ConnectRedis(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	registry := metrics.NewRegistry()
	components, err := app.Build(logg, dbClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"embedded": cfg.Cron.Embedded,
	})

	schedulerDone := make(chan error, 1)
	if cfg.Cron.Embedded {
		scheduler, err := app.NewScheduler(cfg, logg, components.Detector, redisClient, registry)
		if err != nil {
			logg.Error(ctx, "failed to create scheduler", err)
			os.Exit(1)
		}
		go func() { schedulerDone <- scheduler.Run(ctx) }()
	} else {
		close(schedulerDone)
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			app.ReadyChecks(dbClient, redisClient),
			metrics.Handler(registry),
			components.Cars,
			components.Owners,
			components.Policies,
			components.Claims,
			components.Checker,
			components.Detector,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	stop()
	if err := <-schedulerDone; err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "scheduler stopped unexpectedly", err)
	}
}
