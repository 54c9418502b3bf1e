package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSoldOut   ProductStatus = "sold_out"
	ProductStatusExpired   ProductStatus = "expired"
	ProductStatusPaused    ProductStatus = "paused"
)

// Product is a discounted listing; Quantity is the unreserved stock.
type Product struct {
	ID            string
	BusinessID    string
	Title         string
	Description   string
	OriginalPrice decimal.Decimal
	DiscountPrice decimal.Decimal
	Quantity      int
	Status        ProductStatus
	PickupStart   time.Time
	PickupEnd     time.Time
	AvailableDate time.Time
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusAfterDecrement returns the status the product takes once quantity
// has been reduced to remaining.
func (p Product) StatusAfterDecrement(remaining int) ProductStatus {
	if remaining == 0 {
		return ProductStatusSoldOut
	}
	return p.Status
}
