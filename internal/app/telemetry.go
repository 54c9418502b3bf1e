package app

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/dave999999/SmartPick1-sub000/internal/app"

type lifecycleMetrics struct {
	created   metric.Int64Counter
	cancelled metric.Int64Counter
	redeemed  metric.Int64Counter
	expired   metric.Int64Counter
	penalties metric.Int64Counter
}

func newLifecycleMetrics(meter metric.Meter) lifecycleMetrics {
	return lifecycleMetrics{
		created:   counter(meter, "reservations.created", "Reservations created"),
		cancelled: counter(meter, "reservations.cancelled", "Reservations cancelled by their owner"),
		redeemed:  counter(meter, "reservations.redeemed", "Reservations redeemed at pickup"),
		expired:   counter(meter, "reservations.expired", "Reservations swept as expired"),
		penalties: counter(meter, "penalties.applied", "No-show penalties applied"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return c
}
