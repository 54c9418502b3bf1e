package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dave999999/SmartPick1-sub000/internal/app"
	"github.com/dave999999/SmartPick1-sub000/internal/clock"
	"github.com/dave999999/SmartPick1-sub000/internal/config"
	"github.com/dave999999/SmartPick1-sub000/internal/domain"
	"github.com/dave999999/SmartPick1-sub000/internal/messaging"
	"github.com/dave999999/SmartPick1-sub000/internal/storage/postgres"
)

var (
	logger  *slog.Logger
	sweeper *app.ReservationService
)

func init() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadSweeper(logger)
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	// The pool outlives a single invocation and is reused while the
	// execution environment stays warm.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to db", slog.Any("error", err))
		os.Exit(1)
	}

	sweeper = app.NewReservationService(
		postgres.NewReservationRepository(pool),
		clock.NewSystem(),
		app.WithPublisher(messaging.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)),
		app.WithLogger(logger),
	)
}

// HandleRequest is triggered by an EventBridge schedule.
func HandleRequest(ctx context.Context) error {
	n, err := sweeper.SweepExpired(ctx, domain.SweepScope{})
	if err != nil {
		logger.ErrorContext(ctx, "expiry sweep failed", slog.Any("error", err))
		return err
	}
	logger.InfoContext(ctx, "expiry sweep finished", slog.Int("processed", n))
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
