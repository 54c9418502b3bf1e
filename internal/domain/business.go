package domain

import "time"

// Business is a partner venue that lists products.
type Business struct {
	ID        string
	OwnerID   string
	Name      string
	Address   string
	CreatedAt time.Time
}
