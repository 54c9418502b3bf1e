package app

import (
	"context"

	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

// EventPublisher receives lifecycle events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.ReservationEvent) error {
	return nil
}
