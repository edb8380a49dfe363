package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/transition"
	"fulfillment/internal/core/domain/model/account"
	"fulfillment/internal/core/domain/model/ledger"
	"fulfillment/internal/core/domain/model/remote"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
)

// StatusDriver is the slice of the transition driver the coordinator and the
// operator commands consume. Only the driver issues status-mutating remote
// calls.
type StatusDriver interface {
	EnsureReadyToShip(ctx context.Context, orderID int64) transition.Outcome
	ConfirmShipment(ctx context.Context, orderID int64) transition.Outcome
	AdvanceToInTransit(ctx context.Context, orderID int64) transition.Outcome
	AdvanceToDelivered(ctx context.Context, orderID int64) transition.Outcome
}

// StockCountPusher propagates free inventory counts to the remote catalog.
// Pushes are best-effort and never block fulfillment.
type StockCountPusher interface {
	Push(ctx context.Context) error
}

// FulfillmentResult is the typed result of one fulfillment attempt.
type FulfillmentResult struct {
	OrderID      int64
	Product      string
	AccountLogin string

	// MessagingDegraded is set when the buyer chat channel was unavailable:
	// fulfillment proceeded, but the credential must reach the buyer through
	// another channel.
	MessagingDegraded bool

	// Stage is the ledger stage recorded for the order.
	Stage ledger.Stage

	// Transition is the outcome of driving the remote order toward
	// shipment confirmation. A non-OK outcome is surfaced here for retry by
	// an operator-triggered step, not rolled back. A sent credential
	// cannot be un-sent.
	Transition transition.Outcome

	// AttemptID correlates log lines of a single attempt.
	AttemptID string
}

// FulfillOrderCommandHandler coordinates end-to-end fulfillment:
// claim → fetch → allocate → deliver message → consume → confirm shipment →
// record ledger. Side effects are ordered and partially compensating; see
// Handle for the exact failure semantics of each step.
type FulfillOrderCommandHandler struct {
	uowFactory  UoWFactory
	gateway     ports.RemoteOrderGateway
	driver      StatusDriver
	messenger   ports.BuyerMessenger
	stockPusher StockCountPusher
	logger      *slog.Logger
}

// NewFulfillOrderCommandHandler creates the fulfillment coordinator.
// stockPusher may be nil to disable post-consumption stock pushes.
func NewFulfillOrderCommandHandler(
	uowFactory UoWFactory,
	gateway ports.RemoteOrderGateway,
	driver StatusDriver,
	messenger ports.BuyerMessenger,
	stockPusher StockCountPusher,
	logger *slog.Logger,
) FulfillOrderCommandHandler {
	return FulfillOrderCommandHandler{
		uowFactory:  uowFactory,
		gateway:     gateway,
		driver:      driver,
		messenger:   messenger,
		stockPusher: stockPusher,
		logger:      logger.With("component", "fulfillment_coordinator"),
	}
}

// Handle processes one fulfillment attempt.
//
// Failure semantics by step:
//   - claim not acquired: ErrAlreadyProcessed, nothing happened
//   - order fetch failed / no line items: claim released, safe to retry
//   - no account available: ErrAllocationExhausted, claim released,
//     operator action required
//   - buyer message failed: non-fatal, attempt continues marked degraded
//   - consumption failed: reservation and claim released, nothing was
//     handed out yet
//   - remote transition failed after consumption: NOT rolled back; the
//     ledger records the stage actually reached and the outcome is surfaced
//     in the result for an operator-triggered retry
//   - ledger write failed: claim completed anyway (the credential is out;
//     re-running the whole attempt would allocate a second one) and the
//     persistence error is surfaced, never swallowed
func (h *FulfillOrderCommandHandler) Handle(ctx context.Context, cmd FulfillOrderCommand) (FulfillmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return FulfillmentResult{}, err
	}

	orderID := cmd.OrderID()
	attemptID := uuid.NewString()
	log := h.logger.With("order_id", orderID, "attempt_id", attemptID)
	result := FulfillmentResult{OrderID: orderID, AttemptID: attemptID}

	acquired, err := h.acquireClaim(ctx, orderID)
	if err != nil {
		return result, err
	}
	if !acquired {
		return result, ErrAlreadyProcessed
	}

	snap, err := h.gateway.GetOrder(ctx, orderID)
	if err != nil {
		h.releaseClaim(ctx, orderID, log)
		return result, fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	if len(snap.Items) == 0 {
		h.releaseClaim(ctx, orderID, log)
		return result, ErrEmptyOrder
	}

	productKey := snap.FirstSKU()
	productName := snap.FirstOfferName()
	result.Product = productName

	acc, err := h.allocate(ctx, productKey)
	if err != nil {
		h.releaseClaim(ctx, orderID, log)
		if errors.Is(err, errs.ErrObjectNotFound) {
			log.WarnContext(ctx, "Inventory exhausted", "product_key", productKey)
			return result, ErrAllocationExhausted
		}
		return result, err
	}
	result.AccountLogin = acc.Login()
	log.InfoContext(ctx, "Account allocated", "login", acc.Login(), "product_key", productKey)

	// Delivery message goes out before consumption so a messaging failure
	// never strands a consumed account without a single delivery attempt.
	slip := buildCredentialSlip(acc, productName)
	if msgErr := h.messenger.SendToBuyer(ctx, orderID, slip); msgErr != nil {
		result.MessagingDegraded = true
		log.WarnContext(ctx, "Buyer chat unavailable, continuing without notification", "error", msgErr)
	}

	if err = h.consume(ctx, acc.Login()); err != nil {
		h.releaseAllocation(ctx, acc.Login(), log)
		h.releaseClaim(ctx, orderID, log)
		return result, fmt.Errorf("consume account %q: %w", acc.Login(), err)
	}

	if h.stockPusher != nil {
		if pushErr := h.stockPusher.Push(ctx); pushErr != nil {
			log.WarnContext(ctx, "Stock push after consumption failed", "error", pushErr)
		}
	}

	// Drive only as far as shipment confirmation. InTransit and Delivered
	// represent real-world handoff events and stay operator-triggered.
	outcome := h.driver.EnsureReadyToShip(ctx, orderID)
	if outcome.Status.OK() {
		outcome = h.driver.ConfirmShipment(ctx, orderID)
	}
	result.Transition = outcome

	entry, err := h.buildShippedEntry(snap, acc, outcome)
	if err != nil {
		h.completeClaim(ctx, orderID, log)
		return result, err
	}
	result.Stage = entry.Stage()

	if err = h.upsertLedger(ctx, entry); err != nil {
		h.completeClaim(ctx, orderID, log)
		return result, fmt.Errorf("record ledger entry for order %d: %w", orderID, err)
	}

	h.completeClaim(ctx, orderID, log)
	log.InfoContext(ctx, "Order fulfilled",
		"stage", entry.Stage().String(),
		"transition", outcome.Status.String(),
		"messaging_degraded", result.MessagingDegraded)
	return result, nil
}

// allocate reserves the first matching free account: keyed allocation first,
// then any free account. The keyed call already falls back to unbound
// accounts, the unkeyed one also admits accounts bound to other products as
// the last resort. Committing the transaction holds the reservation, so a
// concurrent attempt for another order cannot receive the same account while
// this one is still between allocation and consumption.
func (h *FulfillOrderCommandHandler) allocate(ctx context.Context, productKey string) (*account.Account, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.AccountRepository()
	acc, err := repo.Allocate(ctx, productKey)
	if err != nil && errors.Is(err, errs.ErrObjectNotFound) && productKey != "" {
		acc, err = repo.Allocate(ctx, "")
	}
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return acc, nil
}

// releaseAllocation returns a reserved account to the free pool when the
// attempt aborts before consumption. Best-effort: a failure here leaves the
// reservation to the startup sweep.
func (h *FulfillOrderCommandHandler) releaseAllocation(ctx context.Context, login string, log *slog.Logger) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to release account reservation", "login", login, "error", err)
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.AccountRepository().ReleaseAllocation(ctx, login); err != nil {
		log.ErrorContext(ctx, "Failed to release account reservation", "login", login, "error", err)
		return
	}
	if err := uow.Commit(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to release account reservation", "login", login, "error", err)
	}
}

func (h *FulfillOrderCommandHandler) consume(ctx context.Context, login string) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.AccountRepository().Consume(ctx, login); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func (h *FulfillOrderCommandHandler) buildShippedEntry(
	snap remote.OrderSnapshot, acc *account.Account, outcome transition.Outcome,
) (*ledger.Entry, error) {
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	entry, err := ledger.NewEntry(snap.OrderID, snap.Status, snap.Substatus,
		snap.FirstOfferName(), snap.BuyerName, snap.Total, createdAt)
	if err != nil {
		return nil, err
	}
	if err = entry.MarkShipped(acc.Login()); err != nil {
		return nil, err
	}
	// Prefer the state the driver observed last; it re-fetched after us.
	if outcome.ObservedStatus != "" {
		entry.ObserveRemoteState(outcome.ObservedStatus, outcome.ObservedSubstatus)
	}
	return entry, nil
}

func (h *FulfillOrderCommandHandler) upsertLedger(ctx context.Context, entry *ledger.Entry) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.LedgerRepository().Upsert(ctx, entry); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func (h *FulfillOrderCommandHandler) acquireClaim(ctx context.Context, orderID int64) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	acquired, err := uow.ClaimRepository().Acquire(ctx, orderID)
	if err != nil {
		return false, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return acquired, nil
}

func (h *FulfillOrderCommandHandler) releaseClaim(ctx context.Context, orderID int64, log *slog.Logger) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to release fulfillment claim", "error", err)
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.ClaimRepository().Release(ctx, orderID); err != nil {
		log.ErrorContext(ctx, "Failed to release fulfillment claim", "error", err)
		return
	}
	if err := uow.Commit(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to release fulfillment claim", "error", err)
	}
}

func (h *FulfillOrderCommandHandler) completeClaim(ctx context.Context, orderID int64, log *slog.Logger) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to complete fulfillment claim", "error", err)
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.ClaimRepository().Complete(ctx, orderID); err != nil {
		log.ErrorContext(ctx, "Failed to complete fulfillment claim", "error", err)
		return
	}
	if err := uow.Commit(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to complete fulfillment claim", "error", err)
	}
}
