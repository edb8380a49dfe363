package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/application/transition"
	"fulfillment/internal/pkg/errs"
)

// AdvanceInTransitCommandHandler drives a remote order into the delivery
// status and records the progress in the ledger. The remote transition comes
// first: the ledger only ever reflects a state the remote side acknowledged.
type AdvanceInTransitCommandHandler struct {
	uowFactory LedgerUoWFactory
	driver     StatusDriver
	logger     *slog.Logger
}

// NewAdvanceInTransitCommandHandler creates a new AdvanceInTransitCommandHandler.
func NewAdvanceInTransitCommandHandler(
	uowFactory LedgerUoWFactory,
	driver StatusDriver,
	logger *slog.Logger,
) AdvanceInTransitCommandHandler {
	return AdvanceInTransitCommandHandler{
		uowFactory: uowFactory,
		driver:     driver,
		logger:     logger.With("component", "advance_in_transit"),
	}
}

// Handle requests the transition and, if the remote side is at or past the
// target, marks the ledger entry InTransit. A missing ledger entry is logged
// and skipped: the remote state is authoritative and the entry will be
// created on the next scan.
func (h *AdvanceInTransitCommandHandler) Handle(ctx context.Context, cmd AdvanceInTransitCommand) (transition.Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return transition.Outcome{}, err
	}

	orderID := cmd.OrderID()
	outcome := h.driver.AdvanceToInTransit(ctx, orderID)
	if !outcome.Status.OK() {
		h.logger.WarnContext(ctx, "In-transit transition did not succeed",
			"order_id", orderID,
			"outcome", outcome.Status.String(),
			"reason", outcome.Reason)
		return outcome, nil
	}

	if err := h.recordInTransit(ctx, orderID, outcome); err != nil {
		return outcome, fmt.Errorf("record in-transit for order %d: %w", orderID, err)
	}
	return outcome, nil
}

func (h *AdvanceInTransitCommandHandler) recordInTransit(ctx context.Context, orderID int64, outcome transition.Outcome) error {
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
			h.logger.WarnContext(ctx, "No ledger entry to advance, remote state is ahead of the ledger",
				"order_id", orderID)
			return nil
		}
		return err
	}

	entry.MarkInTransit()
	if outcome.ObservedStatus != "" {
		entry.ObserveRemoteState(outcome.ObservedStatus, outcome.ObservedSubstatus)
	}
	if err = repo.Upsert(ctx, entry); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
