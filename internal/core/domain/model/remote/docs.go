// Package remote models the marketplace side of an order: the raw
// (status, substatus) pairs of the DBS lifecycle, their collapse into an
// ordered Phase, and the OrderSnapshot read model returned by the order
// gateway.
//
// The lifecycle is append-only and strictly ordered. The marketplace may
// auto-advance an order between two of our reads; code in this package only
// observes, it never mutates.
package remote
