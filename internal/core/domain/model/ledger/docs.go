// Package ledger contains the order ledger aggregate: the local durable
// record of each remote order's fulfillment progress. The ledger is the
// system's memory across restarts: entries are created on first
// observation, merged idempotently on every update, and never deleted.
package ledger
