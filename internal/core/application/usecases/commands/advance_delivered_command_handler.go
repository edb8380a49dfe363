package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/transition"
	"fulfillment/internal/pkg/errs"
)

// AdvanceDeliveredCommandHandler drives a remote order to its terminal
// delivered status and closes the ledger entry with a delivery timestamp.
type AdvanceDeliveredCommandHandler struct {
	uowFactory LedgerUoWFactory
	driver     StatusDriver
	logger     *slog.Logger
	now        func() time.Time
}

// NewAdvanceDeliveredCommandHandler creates a new AdvanceDeliveredCommandHandler.
func NewAdvanceDeliveredCommandHandler(
	uowFactory LedgerUoWFactory,
	driver StatusDriver,
	logger *slog.Logger,
) AdvanceDeliveredCommandHandler {
	return AdvanceDeliveredCommandHandler{
		uowFactory: uowFactory,
		driver:     driver,
		logger:     logger.With("component", "advance_delivered"),
		now:        time.Now,
	}
}

// Handle requests the delivered transition and, once the remote side is at
// the terminal status, marks the ledger entry Done. The delivery timestamp
// is recorded once and kept on repeated calls.
func (h *AdvanceDeliveredCommandHandler) Handle(ctx context.Context, cmd AdvanceDeliveredCommand) (transition.Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return transition.Outcome{}, err
	}

	orderID := cmd.OrderID()
	outcome := h.driver.AdvanceToDelivered(ctx, orderID)
	if !outcome.Status.OK() {
		h.logger.WarnContext(ctx, "Delivered transition did not succeed",
			"order_id", orderID,
			"outcome", outcome.Status.String(),
			"reason", outcome.Reason)
		return outcome, nil
	}

	if err := h.recordDone(ctx, orderID, outcome); err != nil {
		return outcome, fmt.Errorf("record delivery for order %d: %w", orderID, err)
	}
	return outcome, nil
}

func (h *AdvanceDeliveredCommandHandler) recordDone(ctx context.Context, orderID int64, outcome transition.Outcome) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.LedgerRepository()
	entry, err := repo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			h.logger.WarnContext(ctx, "No ledger entry to close, remote state is ahead of the ledger",
				"order_id", orderID)
			return nil
		}
		return err
	}

	entry.MarkDone(h.now())
	if outcome.ObservedStatus != "" {
		entry.ObserveRemoteState(outcome.ObservedStatus, outcome.ObservedSubstatus)
	}
	if err = repo.Upsert(ctx, entry); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
