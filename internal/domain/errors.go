package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrForbidden       = errors.New("forbidden")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrBusinessNotFound    = errors.New("business not found")
	ErrBusinessNameMissing = errors.New("business name required")
	ErrProductTitleMissing = errors.New("product title required")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidPickupWindow = errors.New("pickup end must be after pickup start")

	ErrPenaltyActive           = errors.New("penalty active")
	ErrReservationLimitReached = errors.New("reservation limit reached")
	ErrDuplicateReservation    = errors.New("active reservation already exists for this product")

	ErrReservationNotFound     = errors.New("reservation not found")
	ErrNotReservationOwner     = errors.New("reservation belongs to another user")
	ErrNotBusinessOwner        = errors.New("reservation belongs to another business")
	ErrReservationNotActive    = errors.New("reservation is not active")
	ErrReservationExpired      = errors.New("reservation expired")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
)

// PenaltyError reports a blocked create while a no-show penalty is running.
type PenaltyError struct {
	Until time.Time
}

func (e *PenaltyError) Error() string {
	return fmt.Sprintf("penalty active until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *PenaltyError) Unwrap() error {
	return ErrPenaltyActive
}
