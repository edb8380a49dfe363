package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/account"
)

// UnboundKey is the distinguished bucket under which accounts with no
// product binding are reported by FreeCountByProduct. It is never a real
// SKU and must be excluded when pushing counts to the remote catalog.
const UnboundKey = "unbound"

// AppendOutcome reports the result of an administrative bulk import.
// Duplicates are reported, not fatal: a login that already exists as an
// unconsumed account is skipped to prevent double-counting inventory.
type AppendOutcome struct {
	Added      []string
	Duplicates []string
}

// AccountRepository defines the persistence contract for the credential
// inventory. Selection order is stable insertion order, the first match
// wins, which keeps allocation deterministic and testable.
type AccountRepository interface {
	// Allocate reserves and returns the first free account for the given
	// product key. The reservation is an atomic read-modify-write inside the
	// current transaction: the selected row is locked and marked reserved, so
	// a concurrent allocator can never receive the same account. Rolling the
	// transaction back discards the reservation; committing holds it until
	// Consume or ReleaseAllocation. A non-empty key prefers an account bound
	// to that key and falls back to an unbound (universal) account; an empty
	// key matches any free account. Returns ObjectNotFoundError when nothing
	// is available.
	Allocate(ctx context.Context, productKey string) (*account.Account, error)

	// Consume marks the account as handed out and drops its reservation.
	// The mark is idempotent: consuming an already consumed login is a no-op,
	// not an error. An unknown login returns ObjectNotFoundError.
	Consume(ctx context.Context, login string) error

	// ReleaseAllocation returns a reserved, still unconsumed account to the
	// free pool. Releasing an unreserved or consumed login is a no-op.
	ReleaseAllocation(ctx context.Context, login string) error

	// FreeCountByProduct aggregates unconsumed accounts per product key.
	// Unbound accounts are reported under UnboundKey, never under a real key.
	FreeCountByProduct(ctx context.Context) (map[string]int, error)

	// Append bulk-inserts accounts. Logins already present as unconsumed
	// rows are reported as duplicates and skipped; a login whose earlier
	// record was consumed is accepted as a fresh account.
	Append(ctx context.Context, accounts []*account.Account) (AppendOutcome, error)

	// Get retrieves the newest account record for a login.
	Get(ctx context.Context, login string) (*account.Account, error)
}
