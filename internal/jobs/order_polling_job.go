package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/ledger"
	"fulfillment/internal/core/domain/model/remote"
	"fulfillment/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// scanTimeout bounds one polling pass. A stuck remote call must not pile up
// overlapping scans.
const scanTimeout = 2 * time.Minute

// OrderPollingJob periodically scans the marketplace for newly paid orders,
// records them in the ledger and triggers fulfillment for each. The claim
// table deduplicates against the interactive trigger, so observing the same
// order on many consecutive scans is harmless.
type OrderPollingJob struct {
	gateway    ports.RemoteOrderGateway
	uowFactory commands.LedgerUoWFactory
	handler    commands.FulfillOrderCommandHandler
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewOrderPollingJob creates the polling job. schedule is a six-field cron
// expression, seconds included.
func NewOrderPollingJob(
	gateway ports.RemoteOrderGateway,
	uowFactory commands.LedgerUoWFactory,
	handler commands.FulfillOrderCommandHandler,
	schedule string,
	logger *slog.Logger,
) *OrderPollingJob {
	return &OrderPollingJob{
		gateway:    gateway,
		uowFactory: uowFactory,
		handler:    handler,
		schedule:   schedule,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "order_polling_job"),
	}
}

// Start begins the periodic scan.
func (j *OrderPollingJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, j.scan)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Order polling job started", "schedule", j.schedule)
	return nil
}

// Stop stops the polling job.
func (j *OrderPollingJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Order polling job stopped")
}

func (j *OrderPollingJob) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	snapshots, err := j.gateway.ListNewOrders(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Order scan failed", "error", err)
		return
	}

	for _, snap := range snapshots {
		if err = j.recordObservation(ctx, snap); err != nil {
			j.logger.ErrorContext(ctx, "Failed to record observed order",
				"order_id", snap.OrderID, "error", err)
			continue
		}

		j.fulfill(ctx, snap.OrderID)
	}
}

// recordObservation upserts a StageNew entry for the order. The merge keeps
// any progress an earlier attempt already recorded.
func (j *OrderPollingJob) recordObservation(ctx context.Context, snap remote.OrderSnapshot) error {
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	entry, err := ledger.NewEntry(snap.OrderID, snap.Status, snap.Substatus,
		snap.FirstOfferName(), snap.BuyerName, snap.Total, createdAt)
	if err != nil {
		return err
	}

	uow := j.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.LedgerRepository().Upsert(ctx, entry); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func (j *OrderPollingJob) fulfill(ctx context.Context, orderID int64) {
	cmd, err := commands.NewFulfillOrderCommand(orderID)
	if err != nil {
		j.logger.ErrorContext(ctx, "Invalid order id from scan", "order_id", orderID, "error", err)
		return
	}

	result, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		// Already claimed is the steady state for orders seen on a
		// previous scan; everything else deserves a log line.
		if errors.Is(err, commands.ErrAlreadyProcessed) {
			return
		}
		if errors.Is(err, commands.ErrAllocationExhausted) {
			j.logger.WarnContext(ctx, "Order waiting for inventory", "order_id", orderID)
			return
		}
		j.logger.ErrorContext(ctx, "Scan-triggered fulfillment failed",
			"order_id", orderID, "error", err)
		return
	}

	j.logger.InfoContext(ctx, "Scan-triggered fulfillment finished",
		"order_id", orderID,
		"stage", result.Stage.String(),
		"transition", result.Transition.Status.String())
}
