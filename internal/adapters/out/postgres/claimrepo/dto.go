// Package claimrepo implements the persisted fulfillment claim marker.
// The claim table is the idempotency guard of the whole fulfillment path:
// whoever inserts the row first owns the attempt.
package claimrepo

import (
	"time"

	"fulfillment/internal/core/ports"
)

// ClaimDTO represents the database structure for fulfillment claims.
// OrderID is the primary key; insertion doubles as the atomic check-and-set.
type ClaimDTO struct {
	OrderID   int64  `gorm:"primaryKey;autoIncrement:false"`
	State     string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for fulfillment claims.
func (ClaimDTO) TableName() string {
	return "fulfillment_claims"
}

func newPendingClaim(orderID int64) ClaimDTO {
	return ClaimDTO{
		OrderID: orderID,
		State:   string(ports.ClaimPending),
	}
}
