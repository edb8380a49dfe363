package commands

import "errors"

// Typed failure classes of fulfillment operations. Callers branch on these
// to tell "retry later" from "needs manual help" from "already done";
// none of them is ever swallowed into a bare string.
var (
	// ErrEmptyOrder means the remote order carries no line items. This is a
	// data problem, not a transient one; the attempt is not retried.
	ErrEmptyOrder = errors.New("order has no line items")

	// ErrAllocationExhausted means no unconsumed account could satisfy the
	// order. Operator action (restocking or manual handling) is required;
	// the system does not retry on its own.
	ErrAllocationExhausted = errors.New("no free account available for allocation")

	// ErrAlreadyProcessed means a fulfillment claim for the order already
	// exists: either another trigger is mid-flight or the order is done.
	ErrAlreadyProcessed = errors.New("order is already claimed for fulfillment")
)
