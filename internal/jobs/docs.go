// Package jobs provides scheduled background tasks for the car-service backend.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// PendingExpiryJob runs on PENDING_EXPIRY_SCHEDULE (default "@every 1m") and cancels
// Pending orders older than PENDING_ORDER_TTL, one transaction per order, notifying
// subscribers of each cancellation.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	expiry := jobs.NewPendingExpiryJob(&expireHandler, cfg.PendingExpirySchedule, cfg.PendingOrderTTL, logger)
//	jobManager := jobs.NewJobManager(expiry)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Orders changed concurrently by a mechanic are skipped silently. Storage errors are
// logged and the pass is retried on the next tick.
package jobs
