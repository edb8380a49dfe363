package queries

import (
	"errors"

	"fulfillment/internal/pkg/guard"
)

var (
	ErrFreeStockQueryIsNotConstructed = errors.New(
		"FreeStockQuery must be created via NewFreeStockQuery constructor",
	)
)

// FreeStockQuery retrieves unconsumed inventory counts per product key.
// This is a parameterless query over the whole inventory.
type FreeStockQuery struct {
	guard guard.ConstructorGuard
}

// NewFreeStockQuery creates the inventory counts query.
func NewFreeStockQuery() FreeStockQuery {
	return FreeStockQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q FreeStockQuery) Validate() error {
	return q.guard.Validate(ErrFreeStockQueryIsNotConstructed)
}

// FreeStockQueryResponse is one inventory bucket: a product key and the
// number of unconsumed accounts available under it. Unbound accounts are
// reported under the synthetic unbound bucket.
type FreeStockQueryResponse struct {
	ProductKey string
	Free       int
}
