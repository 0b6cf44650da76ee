package commands

import (
	"context"
	"errors"
	"time"

	"carservice/internal/core/domain/model/kernel"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/pkg/errs"
)

// ExpirePendingOrdersCommandHandler cancels stale Pending orders one transaction per
// order, so an order accepted while the batch runs is simply skipped.
type ExpirePendingOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	clock      kernel.Clock
	notifier   UpdateNotifier
}

func NewExpirePendingOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	clock kernel.Clock,
	notifier UpdateNotifier,
) ExpirePendingOrdersCommandHandler {
	return ExpirePendingOrdersCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
		notifier:   notifier,
	}
}

// Handle returns the number of orders it cancelled.
func (h *ExpirePendingOrdersCommandHandler) Handle(ctx context.Context, cmd ExpirePendingOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	now := h.clock.Now()
	cutoff := now.Add(-cmd.OlderThan())
	candidates, err := h.uowFactory.Create().OrderRepository().ListPendingCreatedBefore(ctx, cutoff, cmd.BatchSize())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range candidates {
		ok, err := h.expire(ctx, candidate.ID(), now)
		switch {
		case err == nil:
			if ok {
				expired++
			}
		case errs.IsRetryable(err), errors.Is(err, errs.ErrInvalidTransition), errors.Is(err, errs.ErrObjectNotFound):
			// Someone else changed the order first.
		default:
			return expired, err
		}
	}
	return expired, nil
}

func (h *ExpirePendingOrdersCommandHandler) expire(ctx context.Context, id order.ID, now time.Time) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return false, err
	}
	if o.Status() != order.Pending {
		return false, nil
	}

	readVersion := o.Version()
	if err = o.Cancel(now); err != nil {
		return false, err
	}
	if err = repo.Update(ctx, o, readVersion); err != nil {
		return false, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, err
	}

	h.notifier.Notify(ctx, uow.Committed()...)
	return true, nil
}
