package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusRedeemed  ReservationStatus = "redeemed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// MaxActiveReservations caps the reserved rows a single user may hold.
const MaxActiveReservations = 3

// Reservation is a time-boxed hold on units of a product.
type Reservation struct {
	ID               string
	ProductID        string
	UserID           string
	Quantity         int
	Status           ReservationStatus
	ReservedAt       time.Time
	ExpiresAt        time.Time
	VerificationCode string
	RedeemedAt       *time.Time
}

// IsActive reports whether the hold is still reserved and unexpired at now.
func (r Reservation) IsActive(now time.Time) bool {
	return r.Status == ReservationStatusReserved && r.ExpiresAt.After(now)
}

// ReservationView is a reservation joined with its product and business for display.
type ReservationView struct {
	Reservation
	ProductTitle    string
	DiscountPrice   decimal.Decimal
	PickupStart     time.Time
	PickupEnd       time.Time
	BusinessID      string
	BusinessName    string
	BusinessAddress string
}

// ExpiredReservation is a swept row together with its owner's penalty count
// as read under lock.
type ExpiredReservation struct {
	ID           string
	ProductID    string
	UserID       string
	Quantity     int
	PenaltyCount int
}

// SweepScope narrows a sweep. The zero value sweeps everything.
type SweepScope struct {
	UserID  string
	OwnerID string
}
