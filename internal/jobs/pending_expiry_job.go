package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carservice/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const DefaultPendingExpirySchedule = "@every 1m"

// PendingOrderExpirer is satisfied by commands.ExpirePendingOrdersCommandHandler.
type PendingOrderExpirer interface {
	Handle(ctx context.Context, cmd commands.ExpirePendingOrdersCommand) (int, error)
}

// PendingExpiryJob periodically cancels Pending orders that no mechanic accepted in time.
// A run that is still going when the next one is due causes that next run to be skipped.
type PendingExpiryJob struct {
	handler   PendingOrderExpirer
	schedule  string
	olderThan time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewPendingExpiryJob creates the job. schedule accepts standard five-field cron
// expressions and descriptors such as "@every 1m" or "@hourly".
func NewPendingExpiryJob(
	handler PendingOrderExpirer,
	schedule string,
	olderThan time.Duration,
	logger *slog.Logger,
) *PendingExpiryJob {
	if schedule == "" {
		schedule = DefaultPendingExpirySchedule
	}
	return &PendingExpiryJob{
		handler:   handler,
		schedule:  schedule,
		olderThan: olderThan,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger.With("component", "pending_expiry_job"),
	}
}

// Start registers the schedule and starts the scheduler.
func (j *PendingExpiryJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid pending expiry schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Pending expiry job started",
		"schedule", j.schedule, "older_than", j.olderThan.String())
	return nil
}

// RunOnce performs a single expiry pass and returns how many orders were cancelled.
func (j *PendingExpiryJob) RunOnce(ctx context.Context) int {
	cmd, err := commands.NewExpirePendingOrdersCommand(j.olderThan, 0)
	if err != nil {
		j.logger.ErrorContext(ctx, "Pending expiry job misconfigured", "error", err)
		return 0
	}

	expired, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Pending expiry job failed", "error", err, "expired", expired)
		return expired
	}
	if expired > 0 {
		j.logger.InfoContext(ctx, "Expired pending orders", "count", expired)
	}
	return expired
}

// Stop stops the scheduler and waits for a running pass to finish.
func (j *PendingExpiryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Pending expiry job stopped")
}
