// Package account contains the Account aggregate: a single-use credential
// bundle held in inventory until allocation consumes it. Accounts are
// created administratively (bulk import), consumed by the allocator, and
// never deleted.
package account
