package commands

import (
	"context"

	"carservice/internal/core/domain/model/kernel"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/pkg/errs"
)

// MaxConflictRetries is how many times a status change is retried after losing an
// optimistic-lock race.
const MaxConflictRetries = 3

// ChangeOrderStatusCommandHandler applies a status change as a read-modify-write
// transaction. The order is read with a row lock where the store supports one, and
// every store rejects the write if the order changed since it was read. A lost race
// is retried on a fresh read, so a transition that became illegal meanwhile is
// reported as an invalid transition rather than applied.
type ChangeOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	clock      kernel.Clock
	notifier   UpdateNotifier
}

func NewChangeOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	clock kernel.Clock,
	notifier UpdateNotifier,
) ChangeOrderStatusCommandHandler {
	return ChangeOrderStatusCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
		notifier:   notifier,
	}
}

// Handle returns the updated order.
//
// Errors:
//   - *errs.ObjectNotFoundError when the order does not exist
//   - *errs.InvalidTransitionError when the status change is not allowed
//   - validation errors when the change lacks or carries the wrong data
//   - *errs.ConcurrencyConflictError when every retry lost its race
func (h *ChangeOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd ChangeOrderStatusCommand,
) (order.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	var err error
	for range MaxConflictRetries + 1 {
		var (
			updated   order.Snapshot
			committed []order.Snapshot
		)
		updated, committed, err = h.apply(ctx, cmd)
		if err == nil {
			h.notifier.Notify(ctx, committed...)
			return updated, nil
		}
		if !errs.IsRetryable(err) || ctx.Err() != nil {
			return order.Snapshot{}, err
		}
	}
	return order.Snapshot{}, err
}

func (h *ChangeOrderStatusCommandHandler) apply(
	ctx context.Context,
	cmd ChangeOrderStatusCommand,
) (order.Snapshot, []order.Snapshot, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return order.Snapshot{}, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return order.Snapshot{}, nil, err
	}

	readVersion := o.Version()
	if err = o.ChangeStatus(cmd.Change(), h.clock.Now()); err != nil {
		return order.Snapshot{}, nil, err
	}

	if err = repo.Update(ctx, o, readVersion); err != nil {
		return order.Snapshot{}, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, nil, err
	}

	return o.Snapshot(), uow.Committed(), nil
}
