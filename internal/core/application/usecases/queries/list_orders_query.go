// Package queries contains read-only operations over the persisted state.
// Implements the query side of the CQRS architecture: handlers read through
// direct SQL against the database, bypassing aggregates and repositories.
package queries

import (
	"errors"
	"time"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

const (
	// DefaultPageSize is used when a list query passes limit 0.
	DefaultPageSize = 20

	// MaxPageSize caps a single page.
	MaxPageSize = 200
)

var (
	ErrListOrdersQueryIsNotConstructed = errors.New(
		"ListOrdersQuery must be created via NewListOrdersQuery constructor",
	)
)

// ListOrdersQuery retrieves a page of ledger entries, newest first.
//
// Example:
//
//	query, err := NewListOrdersQuery(20, 0)
//	if err != nil {
//	    return err
//	}
//	page, err := handler.Handle(ctx, query)
type ListOrdersQuery struct { //nolint:recvcheck //using for validation
	limit  int
	offset int

	guard guard.ConstructorGuard
}

// NewListOrdersQuery creates a paged list query. A zero limit selects the
// default page size; a negative limit or offset is rejected.
func NewListOrdersQuery(limit, offset int) (ListOrdersQuery, error) {
	q := ListOrdersQuery{guard: guard.NewConstructorGuard()}

	if err := q.setPage(limit, offset); err != nil {
		return ListOrdersQuery{}, err
	}

	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

// Limit returns the page size.
func (q ListOrdersQuery) Limit() int { return q.limit }

// Offset returns the page offset.
func (q ListOrdersQuery) Offset() int { return q.offset }

func (q *ListOrdersQuery) setPage(limit, offset int) error {
	if limit < 0 {
		return errs.NewValueIsOutOfRangeError("limit", limit, 0, MaxPageSize)
	}
	if offset < 0 {
		return errs.NewValueIsOutOfRangeError("offset", offset, 0, int(^uint(0)>>1))
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	q.limit = limit
	q.offset = offset
	return nil
}

// OrderView is the read model of one ledger entry.
type OrderView struct {
	OrderID         int64
	RemoteStatus    string
	RemoteSubstatus string
	Stage           string
	Product         string
	BuyerLabel      string
	TotalAmount     decimal.Decimal
	CreatedAt       time.Time
	DeliveredAt     *time.Time
	AccountLogin    string
}

// OrdersPage is one page of the ledger plus the total entry count, so
// callers can render pagination without a second query round trip.
type OrdersPage struct {
	Orders []OrderView
	Total  int64
}
