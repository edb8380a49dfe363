package accountrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/account"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements AccountRepository using GORM.
type GormAccountRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id string, aggregate any)
}

// NewGormAccountRepository creates a new GORM account repository.
func NewGormAccountRepository(db *gorm.DB, tracker aggregateTracker) *GormAccountRepository {
	return &GormAccountRepository{
		db:      db,
		tracker: tracker,
	}
}

// Allocate reserves and returns the first free account matching the product
// key. The row is selected with FOR UPDATE SKIP LOCKED and flagged reserved
// in the same transaction, so two concurrent allocators can never pick the
// same account: the second one skips the locked row and takes the next.
// A non-empty key tries accounts bound to that key first, then unbound
// accounts; an empty key matches any free account. Selection order is
// ascending insertion order in every branch.
func (r *GormAccountRepository) Allocate(ctx context.Context, productKey string) (*account.Account, error) {
	var dto AccountDTO

	if productKey != "" {
		err := r.lockFree(ctx, &dto, "product_binding = ?", productKey)
		if err == nil {
			return r.reserve(ctx, dto)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		err = r.lockFree(ctx, &dto, "product_binding = ?", "")
		if err == nil {
			return r.reserve(ctx, dto)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, errs.NewObjectNotFoundError("account", productKey)
	}

	if err := r.lockFree(ctx, &dto); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("account", productKey)
		}
		return nil, err
	}
	return r.reserve(ctx, dto)
}

// lockFree selects the oldest free row matching the extra conditions and
// takes a row lock on it, skipping rows already locked by concurrent
// allocators.
func (r *GormAccountRepository) lockFree(ctx context.Context, dto *AccountDTO, conds ...any) error {
	q := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Where("consumed = ? AND reserved = ?", false, false).
		Order("pos")
	if len(conds) > 0 {
		q = q.Where(conds[0], conds[1:]...)
	}
	return q.First(dto).Error
}

func (r *GormAccountRepository) reserve(ctx context.Context, dto AccountDTO) (*account.Account, error) {
	if err := r.db.WithContext(ctx).Model(&AccountDTO{}).
		Where("pos = ?", dto.Pos).
		Update("reserved", true).Error; err != nil {
		return nil, err
	}
	return toDomain(dto)
}

// ReleaseAllocation returns a reserved account to the free pool. A login that
// is not reserved, already consumed or unknown is left untouched.
func (r *GormAccountRepository) ReleaseAllocation(ctx context.Context, login string) error {
	return r.db.WithContext(ctx).Model(&AccountDTO{}).
		Where("login = ? AND consumed = ? AND reserved = ?", login, false, true).
		Update("reserved", false).Error
}

// Consume marks all unconsumed records of the login as handed out and drops
// any reservation on them. Consuming an already consumed login is a no-op;
// an unknown login returns ObjectNotFoundError.
func (r *GormAccountRepository) Consume(ctx context.Context, login string) error {
	result := r.db.WithContext(ctx).Model(&AccountDTO{}).
		Where("login = ? AND consumed = ?", login, false).
		Updates(map[string]any{"consumed": true, "reserved": false})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var known int64
	if err := r.db.WithContext(ctx).Model(&AccountDTO{}).
		Where("login = ?", login).Count(&known).Error; err != nil {
		return err
	}
	if known == 0 {
		return errs.NewObjectNotFoundError("account", login)
	}
	return nil
}

// FreeCountByProduct aggregates free accounts per product key. Reserved rows
// are mid-fulfillment and not counted as free. Accounts without a binding
// fall into the unbound bucket.
func (r *GormAccountRepository) FreeCountByProduct(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.WithContext(ctx).Model(&AccountDTO{}).
		Select("COALESCE(NULLIF(product_binding, ''), ?) AS product_key, COUNT(*) AS free", ports.UnboundKey).
		Where("consumed = ? AND reserved = ?", false, false).
		Group("product_key").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key  string
			free int
		)
		if err = rows.Scan(&key, &free); err != nil {
			return nil, err
		}
		counts[key] = free
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// Append bulk-inserts accounts in input order. A login that already exists
// as an unconsumed row is skipped and reported as a duplicate; a login whose
// earlier records were all consumed is accepted as fresh inventory.
func (r *GormAccountRepository) Append(ctx context.Context, accounts []*account.Account) (ports.AppendOutcome, error) {
	outcome := ports.AppendOutcome{}

	for _, acc := range accounts {
		if err := acc.Validate(); err != nil {
			return ports.AppendOutcome{}, err
		}

		var free int64
		if err := r.db.WithContext(ctx).Model(&AccountDTO{}).
			Where("login = ? AND consumed = ?", acc.Login(), false).
			Count(&free).Error; err != nil {
			return ports.AppendOutcome{}, err
		}
		if free > 0 {
			outcome.Duplicates = append(outcome.Duplicates, acc.Login())
			continue
		}

		dto := fromDomain(acc)
		if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
			return ports.AppendOutcome{}, err
		}

		r.tracker.TrackAggregate(acc.Login(), acc)
		outcome.Added = append(outcome.Added, acc.Login())
	}

	return outcome, nil
}

// Get retrieves the newest record for a login.
func (r *GormAccountRepository) Get(ctx context.Context, login string) (*account.Account, error) {
	var dto AccountDTO
	err := r.db.WithContext(ctx).Where("login = ?", login).Order("pos DESC").First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("account", login)
		}
		return nil, err
	}

	return toDomain(dto)
}
