package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
	seen  chan domain.SweepScope
}

func (c *countingSweeper) SweepExpired(_ context.Context, scope domain.SweepScope) (int, error) {
	c.calls.Add(1)
	select {
	case c.seen <- scope:
	default:
	}
	return 1, c.err
}

func TestSweeper_Run(t *testing.T) {
	t.Parallel()

	t.Run("sweeps globally on start and on every tick", func(t *testing.T) {
		target := &countingSweeper{seen: make(chan domain.SweepScope, 1)}
		s := NewSweeper(target, 5*time.Millisecond, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		select {
		case scope := <-target.seen:
			assert.Equal(t, domain.SweepScope{}, scope)
		case <-time.After(time.Second):
			t.Fatal("sweeper never ran")
		}
		require.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sweeper did not stop on cancellation")
		}
	})

	t.Run("keeps running after a failed sweep", func(t *testing.T) {
		target := &countingSweeper{err: errors.New("db down"), seen: make(chan domain.SweepScope, 1)}
		s := NewSweeper(target, 5*time.Millisecond, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.Run(ctx)

		require.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, time.Millisecond)
	})

	t.Run("returns immediately when already cancelled", func(t *testing.T) {
		target := &countingSweeper{seen: make(chan domain.SweepScope, 1)}
		s := NewSweeper(target, time.Hour, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.Run(ctx)

		assert.Zero(t, target.calls.Load())
	})
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	t.Parallel()

	s := NewSweeper(&countingSweeper{}, 0, nil)
	assert.Equal(t, time.Minute, s.interval)
}
