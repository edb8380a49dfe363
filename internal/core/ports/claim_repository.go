package ports

import "context"

// ClaimState is the lifecycle of a fulfillment claim.
type ClaimState string

const (
	// ClaimPending marks an order with a fulfillment attempt in flight.
	ClaimPending ClaimState = "pending"

	// ClaimDone marks an order whose fulfillment completed.
	ClaimDone ClaimState = "done"
)

// ClaimRepository is the persisted idempotency marker that deduplicates
// fulfillment triggers. Two entry points can request fulfillment for the
// same order (the periodic scan and an interactive operator call) and the
// claim is checked and set in a single atomic statement before any
// allocation occurs, so the two can never race for the same order. Because
// the marker is durable, a restart neither re-triggers an order mid-flight
// nor skips one that crashed before completing.
type ClaimRepository interface {
	// Acquire atomically records a pending claim for the order. It returns
	// false when a claim (pending or done) already exists. Check and set are
	// one statement; there is no suspension point between them.
	Acquire(ctx context.Context, orderID int64) (bool, error)

	// Complete moves the order's claim to done.
	Complete(ctx context.Context, orderID int64) error

	// Release removes a pending claim so the order can be retried after a
	// failed attempt. A done claim is never released.
	Release(ctx context.Context, orderID int64) error
}
