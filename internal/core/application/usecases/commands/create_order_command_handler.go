package commands

import (
	"context"

	"carservice/internal/core/domain/model/kernel"
	"carservice/internal/core/domain/model/order"
)

// CreateOrderCommandHandler stores a new Pending order and announces it.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	clock      kernel.Clock
	notifier   UpdateNotifier
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	clock kernel.Clock,
	notifier UpdateNotifier,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
		notifier:   notifier,
	}
}

// Handle creates the order with a fresh id and status Pending. Nothing is stored when
// validation fails.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (order.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	now := h.clock.Now()
	o, err := order.NewOrder(order.NewID(now), cmd.Details(), now)
	if err != nil {
		return order.Snapshot{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return order.Snapshot{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return order.Snapshot{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, err
	}

	h.notifier.Notify(ctx, uow.Committed()...)
	return o.Snapshot(), nil
}
