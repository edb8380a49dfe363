package jobs

import (
	"fmt"
	"log/slog"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/ports"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	orderPollingJob *OrderPollingJob
	stockSyncJob    *StockSyncJob
}

// NewJobManager creates a job manager with all required jobs wired up.
func NewJobManager(
	gateway ports.RemoteOrderGateway,
	uowFactory commands.LedgerUoWFactory,
	fulfillHandler commands.FulfillOrderCommandHandler,
	pushStockHandler commands.PushStockCommandHandler,
	pollSchedule string,
	stockSyncSchedule string,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		orderPollingJob: NewOrderPollingJob(gateway, uowFactory, fulfillHandler, pollSchedule, logger),
		stockSyncJob:    NewStockSyncJob(pushStockHandler, stockSyncSchedule, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.orderPollingJob.Start(); err != nil {
		return fmt.Errorf("failed to start order polling job: %w", err)
	}

	if err := jm.stockSyncJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.orderPollingJob.Stop()
		return fmt.Errorf("failed to start stock sync job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.stockSyncJob.Stop()
	jm.orderPollingJob.Stop()
}
