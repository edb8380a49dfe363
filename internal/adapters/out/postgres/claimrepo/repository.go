package claimrepo

import (
	"context"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClaimRepository implements ClaimRepository using GORM.
type GormClaimRepository struct {
	db *gorm.DB
}

// NewGormClaimRepository creates a new GORM claim repository.
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// Acquire inserts a pending claim for the order. The insert carries an
// ON CONFLICT DO NOTHING clause, so check and set happen in one statement
// and concurrent callers can never both win.
func (r *GormClaimRepository) Acquire(ctx context.Context, orderID int64) (bool, error) {
	dto := newPendingClaim(orderID)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoNothing: true,
	}).Create(&dto)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Complete moves the order's claim to done. Completing an already done
// claim is a no-op; a missing claim returns ObjectNotFoundError.
func (r *GormClaimRepository) Complete(ctx context.Context, orderID int64) error {
	result := r.db.WithContext(ctx).Model(&ClaimDTO{}).
		Where("order_id = ?", orderID).
		Update("state", string(ports.ClaimDone))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("claim", orderID)
	}
	return nil
}

// Release removes a pending claim so the order can be retried.
// A done claim is never released; releasing a missing claim is a no-op.
func (r *GormClaimRepository) Release(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).
		Where("order_id = ? AND state = ?", orderID, string(ports.ClaimPending)).
		Delete(&ClaimDTO{}).Error
}
