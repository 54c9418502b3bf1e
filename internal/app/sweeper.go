package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

// ExpirySweeper settles expired reservations.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context, scope domain.SweepScope) (int, error)
}

// Sweeper triggers a global expiry sweep on a fixed interval. Reads still
// sweep lazily, so a missed tick only delays stock returning to sale.
type Sweeper struct {
	target   ExpirySweeper
	interval time.Duration
	logger   *slog.Logger
}

const defaultSweepInterval = time.Minute

func NewSweeper(target ExpirySweeper, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	sweepCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	n, err := s.target.SweepExpired(sweepCtx, domain.SweepScope{})
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("expiry sweep failed", slog.Any("error", err))
		}
		return
	}
	if n > 0 {
		s.logger.Debug("expiry sweep finished", slog.Int("processed_count", n))
	}
}
