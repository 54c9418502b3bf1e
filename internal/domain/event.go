package domain

import "time"

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationRedeemed  EventType = "reservation.redeemed"
	EventReservationExpired   EventType = "reservation.expired"
)

// ReservationEvent records a committed lifecycle transition.
type ReservationEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservationId"`
	ProductID     string    `json:"productId"`
	UserID        string    `json:"userId"`
	Quantity      int       `json:"quantity"`
	OccurredAt    time.Time `json:"occurredAt"`
}
