package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const syncTimeout = time.Minute

// StockSyncJob periodically pushes free inventory counts to the remote
// catalog. The push after each consumption keeps counts fresh; this job is
// the safety net that heals drift after failed pushes or manual edits.
type StockSyncJob struct {
	handler  commands.PushStockCommandHandler
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewStockSyncJob creates the stock sync job. schedule is a six-field cron
// expression, seconds included.
func NewStockSyncJob(handler commands.PushStockCommandHandler, schedule string, logger *slog.Logger) *StockSyncJob {
	return &StockSyncJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "stock_sync_job"),
	}
}

// Start begins the periodic sync.
func (j *StockSyncJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if err := j.handler.Push(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Stock sync failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stock sync job started", "schedule", j.schedule)
	return nil
}

// Stop stops the stock sync job.
func (j *StockSyncJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Stock sync job stopped")
}
