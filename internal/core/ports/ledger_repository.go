package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/ledger"
)

// LedgerRepository defines the persistence contract for order ledger
// entries. Entries are keyed by the remote order id and never deleted.
type LedgerRepository interface {
	// Upsert inserts the entry if no record exists for its order id, or
	// merges the supplied fields into the existing record. Repeated upserts
	// of the same entry are idempotent, and a lower incoming stage never
	// overwrites a higher stored one (the regression is logged, not applied).
	Upsert(ctx context.Context, entry *ledger.Entry) error

	// Get retrieves the ledger entry for an order id.
	// Returns ObjectNotFoundError when no record exists.
	Get(ctx context.Context, orderID int64) (*ledger.Entry, error)
}
