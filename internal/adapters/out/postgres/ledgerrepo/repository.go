package ledgerrepo

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"fulfillment/internal/core/domain/model/ledger"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormLedgerRepository implements LedgerRepository using GORM.
type GormLedgerRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
	logger  *slog.Logger
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id string, aggregate any)
}

// NewGormLedgerRepository creates a new GORM ledger repository.
func NewGormLedgerRepository(db *gorm.DB, tracker aggregateTracker, logger *slog.Logger) *GormLedgerRepository {
	return &GormLedgerRepository{
		db:      db,
		tracker: tracker,
		logger:  logger,
	}
}

// Upsert inserts the entry or merges it into the existing row for its order
// id. The merge keeps the higher of the two stages; an incoming regression
// is logged and dropped, never applied.
func (r *GormLedgerRepository) Upsert(ctx context.Context, entry *ledger.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	var stored EntryDTO
	err := r.db.WithContext(ctx).First(&stored, "order_id = ?", entry.OrderID()).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		dto := fromDomain(entry)
		if err = r.db.WithContext(ctx).Create(&dto).Error; err != nil {
			return err
		}
		r.tracker.TrackAggregate(strconv.FormatInt(entry.OrderID(), 10), entry)
		return nil
	}

	current, err := toDomain(stored)
	if err != nil {
		return err
	}

	regressed, err := current.Merge(entry)
	if err != nil {
		return err
	}
	if regressed {
		r.logger.WarnContext(ctx, "Dropped stage regression on ledger upsert",
			"order_id", entry.OrderID(),
			"stored_stage", current.Stage().String(),
			"incoming_stage", entry.Stage().String())
	}

	dto := fromDomain(current)
	dto.Pos = stored.Pos
	if err = r.db.WithContext(ctx).Model(&EntryDTO{}).
		Where("order_id = ?", current.OrderID()).
		Select("*").Omit("pos").Updates(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(strconv.FormatInt(current.OrderID(), 10), current)
	return nil
}

// Get retrieves the ledger entry for an order id.
func (r *GormLedgerRepository) Get(ctx context.Context, orderID int64) (*ledger.Entry, error) {
	var dto EntryDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("ledger entry", orderID)
		}
		return nil, err
	}

	return toDomain(dto)
}
