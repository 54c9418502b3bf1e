package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dave999999/SmartPick1-sub000/internal/app"
	"github.com/dave999999/SmartPick1-sub000/internal/auth"
	"github.com/dave999999/SmartPick1-sub000/internal/clock"
	"github.com/dave999999/SmartPick1-sub000/internal/config"
	"github.com/dave999999/SmartPick1-sub000/internal/messaging"
	"github.com/dave999999/SmartPick1-sub000/internal/storage/postgres"
	"github.com/dave999999/SmartPick1-sub000/internal/telemetry"
	transporthttp "github.com/dave999999/SmartPick1-sub000/internal/transport/http"
	"github.com/dave999999/SmartPick1-sub000/migrations"
)

const (
	shutdownTimeout = 10 * time.Second
	devJWTSecret    = "smartpick-dev-secret"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(bootLogger)
	if err != nil {
		bootLogger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(startupCtx, telemetry.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		return err
	}

	publisher := messaging.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publisher", slog.Any("error", err))
		}
	}()

	clk := clock.NewSystem()
	reservations := app.NewReservationService(
		postgres.NewReservationRepository(pool),
		clk,
		app.WithPublisher(publisher),
		app.WithLogger(logger),
	)
	listings := app.NewListingService(postgres.NewListingRepository(pool), clk)

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Reservations: reservations,
		Listings:     listings,
		Verifier:     auth.NewVerifier(secret),
		Health:       pool,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		app.NewSweeper(reservations, cfg.SweepInterval, logger).Run(stopCtx)
	}()

	logger.Info("api listening", slog.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
		stop()
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	<-sweeperDone

	logger.Info("server stopped")
	return serveErr
}
