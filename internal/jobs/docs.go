// Package jobs provides scheduled background tasks for the fulfillment
// system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle the periodic operations the service needs.
//
// # Available Jobs
//
// 1. OrderPollingJob - Scans the marketplace for newly paid orders, records
// them in the ledger and triggers fulfillment for each.
// 2. StockSyncJob - Pushes free inventory counts to the remote catalog to
// heal drift between the local inventory and the storefront.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(gateway, ledgerUoWFactory,
//		fulfillHandler, pushStockHandler, pollSchedule, syncSchedule, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Both jobs take six-field cron expressions (seconds included), so the scan
// can run well below the one-minute granularity of classic cron.
//
// # Error Handling
//
//   - The polling job treats an already claimed order as the steady state
//     and stays quiet about it; inventory exhaustion logs a warning.
//   - The stock sync job logs every failure; the next run retries.
//   - Failed job starts stop any already running jobs.
package jobs
