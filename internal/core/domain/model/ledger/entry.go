package ledger

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrEntryIsNotConstructed is returned when an Entry instance was not
	// created through NewEntry or RestoreEntry.
	ErrEntryIsNotConstructed = errors.New("Entry must be created via NewEntry or RestoreEntry constructor")

	// ErrLoginAlreadyAllocated guards the set-at-most-once rule for the
	// allocated account login.
	ErrLoginAlreadyAllocated = errors.New("allocated account login is already set")
)

// Entry is the local durable record of one remote order. It is the aggregate
// root of the order ledger and reconciles our view of an order against the
// remote one.
//
// Entry follows these invariants:
//   - OrderID is the external identity and never changes
//   - Stage is strictly monotonic; Merge drops regressions silently
//   - AccountLogin is set at most once, only on the New→Shipped transition
//   - Entries are created on first observation and never deleted
type Entry struct {
	// orderID is the remote order identity, unique key of the ledger
	orderID int64

	// remoteStatus/remoteSubstatus mirror the last observed remote state
	remoteStatus    string
	remoteSubstatus string

	// stage is our internal forward-only progress marker
	stage Stage

	// product is the display name of the purchased good
	product string

	// buyerLabel is a human-readable buyer reference for operators
	buyerLabel string

	// totalAmount is the order total as reported by the marketplace
	totalAmount decimal.Decimal

	// createdAt is the remote creation time of the order
	createdAt time.Time

	// deliveredAt is set once, when the order reaches Done
	deliveredAt *time.Time

	// accountLogin references the consumed inventory account, set at most once
	accountLogin string

	// isConstructed ensures the entry was created via a constructor
	isConstructed bool
}

// NewEntry creates a ledger entry for a newly observed order in StageNew.
func NewEntry(orderID int64, remoteStatus, remoteSubstatus, product, buyerLabel string,
	totalAmount decimal.Decimal, createdAt time.Time) (*Entry, error) {
	if orderID <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("orderID",
			fmt.Errorf("%d is not a positive order id", orderID))
	}

	return &Entry{
		orderID:         orderID,
		remoteStatus:    remoteStatus,
		remoteSubstatus: remoteSubstatus,
		stage:           StageNew,
		product:         product,
		buyerLabel:      buyerLabel,
		totalAmount:     totalAmount,
		createdAt:       createdAt,
		isConstructed:   true,
	}, nil
}

// RestoreEntry reconstructs an Entry from persistence.
// Used only by repository implementations.
func RestoreEntry(orderID int64, remoteStatus, remoteSubstatus string, stage Stage,
	product, buyerLabel string, totalAmount decimal.Decimal,
	createdAt time.Time, deliveredAt *time.Time, accountLogin string) (*Entry, error) {
	if err := stage.Validate(); err != nil {
		return nil, err
	}

	e, err := NewEntry(orderID, remoteStatus, remoteSubstatus, product, buyerLabel, totalAmount, createdAt)
	if err != nil {
		return nil, err
	}

	e.stage = stage
	e.deliveredAt = deliveredAt
	e.accountLogin = accountLogin
	return e, nil
}

// Validate ensures the Entry was properly constructed.
func (e *Entry) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEntryIsNotConstructed
	}
	return nil
}

// OrderID returns the remote order identity.
func (e *Entry) OrderID() int64 { return e.orderID }

// RemoteStatus returns the last observed remote status.
func (e *Entry) RemoteStatus() string { return e.remoteStatus }

// RemoteSubstatus returns the last observed remote substatus.
func (e *Entry) RemoteSubstatus() string { return e.remoteSubstatus }

// Stage returns the internal forward-only progress marker.
func (e *Entry) Stage() Stage { return e.stage }

// Product returns the display name of the purchased good.
func (e *Entry) Product() string { return e.product }

// BuyerLabel returns the human-readable buyer reference.
func (e *Entry) BuyerLabel() string { return e.buyerLabel }

// TotalAmount returns the order total.
func (e *Entry) TotalAmount() decimal.Decimal { return e.totalAmount }

// CreatedAt returns the remote creation time of the order.
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

// DeliveredAt returns the delivery time, nil until the order reaches Done.
func (e *Entry) DeliveredAt() *time.Time { return e.deliveredAt }

// AccountLogin returns the login of the consumed inventory account,
// empty until the entry reaches Shipped.
func (e *Entry) AccountLogin() string { return e.accountLogin }

// ObserveRemoteState records the latest remote (status, substatus) pair.
// The remote lifecycle is forward-only, so the observed pair always
// replaces the stored one.
func (e *Entry) ObserveRemoteState(status, substatus string) {
	if status != "" {
		e.remoteStatus = status
	}
	e.remoteSubstatus = substatus
}

// MarkShipped advances the entry to StageShipped and records the allocated
// account login. The login is set at most once; a second call with a
// different login is rejected so one order can never reference two
// credentials.
func (e *Entry) MarkShipped(accountLogin string) error {
	if accountLogin == "" {
		return errs.NewValueIsRequiredError("accountLogin")
	}
	if e.accountLogin != "" && e.accountLogin != accountLogin {
		return ErrLoginAlreadyAllocated
	}
	if e.stage.Before(StageShipped) {
		e.stage = StageShipped
	}
	e.accountLogin = accountLogin
	return nil
}

// MarkInTransit advances the entry to StageInTransit. Advancing an entry
// already at or past InTransit is a no-op.
func (e *Entry) MarkInTransit() {
	if e.stage.Before(StageInTransit) {
		e.stage = StageInTransit
	}
}

// MarkDone advances the entry to StageDone and records the delivery time.
// The delivery timestamp is set once; later calls keep the first value.
func (e *Entry) MarkDone(deliveredAt time.Time) {
	if e.stage.Before(StageDone) {
		e.stage = StageDone
	}
	if e.deliveredAt == nil {
		e.deliveredAt = &deliveredAt
	}
}

// Merge folds the supplied fields of incoming into the entry. Only non-empty
// fields are applied, repeated merges of the same entry are idempotent, and
// a lower incoming stage never overwrites a higher stored one.
// It reports whether the incoming stage was a
// regression that got dropped, so callers can log it.
func (e *Entry) Merge(incoming *Entry) (stageRegressed bool, err error) {
	if err = incoming.Validate(); err != nil {
		return false, err
	}
	if incoming.orderID != e.orderID {
		return false, errs.NewValueIsInvalidErrorWithCause("orderID",
			fmt.Errorf("cannot merge entry for order %d into order %d", incoming.orderID, e.orderID))
	}

	e.ObserveRemoteState(incoming.remoteStatus, incoming.remoteSubstatus)

	if incoming.product != "" {
		e.product = incoming.product
	}
	if incoming.buyerLabel != "" {
		e.buyerLabel = incoming.buyerLabel
	}
	if !incoming.totalAmount.IsZero() {
		e.totalAmount = incoming.totalAmount
	}
	if incoming.deliveredAt != nil && e.deliveredAt == nil {
		e.deliveredAt = incoming.deliveredAt
	}
	if incoming.accountLogin != "" && e.accountLogin == "" {
		e.accountLogin = incoming.accountLogin
	}

	if incoming.stage.Before(e.stage) {
		return true, nil
	}
	e.stage = incoming.stage
	return false, nil
}
