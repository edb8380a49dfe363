// Package transition drives remote orders through the marketplace's
// forward-only status lifecycle.
//
// The remote API rejects out-of-order transitions and may silently advance
// an order on its own between two of our observations. The driver therefore
// re-fetches the current state before every mutating call, satisfies missing
// intermediate steps recursively, reinterprets rejections that turn out to
// be races with remote auto-advance as AlreadyAtTarget, and retries
// transient outages under an injected, bounded RetryPolicy.
//
// All results are typed Outcomes; no caller ever has to parse remote error
// text to tell "retry later" from "needs manual help" from "already done".
package transition
