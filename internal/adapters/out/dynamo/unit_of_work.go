package dynamo

import (
	"context"
	"errors"
	"time"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"
)

// ErrNoTransaction is returned by Commit and Rollback outside Begin.
var ErrNoTransaction = errors.New("no active transaction")

type write struct {
	snapshot        order.Snapshot
	expectedVersion int64
	isNew           bool
}

// UnitOfWork buffers writes and applies them as conditional puts on Commit. A failed
// put stops the commit; writes already applied stay applied, each of them being a
// complete, version-checked order.
type UnitOfWork struct {
	store     *Store
	active    bool
	pending   []write
	committed []order.Snapshot
}

func (uow *UnitOfWork) Begin(_ context.Context) error {
	if !uow.active {
		uow.active = true
		uow.pending = nil
	}
	return nil
}

func (uow *UnitOfWork) Commit(ctx context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}
	writes := uow.pending
	uow.active = false
	uow.pending = nil

	applied := make([]order.Snapshot, 0, len(writes))
	for _, w := range writes {
		if err := uow.store.put(ctx, w); err != nil {
			uow.committed = applied
			return err
		}
		applied = append(applied, w.snapshot)
	}
	uow.committed = applied
	return nil
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}
	uow.active = false
	uow.pending = nil
	return nil
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: uow}
}

func (uow *UnitOfWork) Committed() []order.Snapshot {
	return uow.committed
}

func (uow *UnitOfWork) record(ctx context.Context, w write) error {
	if uow.active {
		uow.pending = append(uow.pending, w)
		return nil
	}
	if err := uow.store.put(ctx, w); err != nil {
		return err
	}
	uow.committed = []order.Snapshot{w.snapshot}
	return nil
}

func (uow *UnitOfWork) lookup(id order.ID) (order.Snapshot, bool) {
	for i := len(uow.pending) - 1; i >= 0; i-- {
		if uow.pending[i].snapshot.ID == id.String() {
			return uow.pending[i].snapshot, true
		}
	}
	return order.Snapshot{}, false
}

type orderRepository struct {
	uow *UnitOfWork
}

func (r *orderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.record(ctx, write{snapshot: aggregate.Snapshot(), isNew: true})
}

func (r *orderRepository) Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.record(ctx, write{snapshot: aggregate.Snapshot(), expectedVersion: expectedVersion})
}

func (r *orderRepository) Get(ctx context.Context, id order.ID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if snap, ok := r.uow.lookup(id); ok {
		return order.RestoreOrder(snap)
	}
	return r.uow.store.get(ctx, id)
}

// GetForUpdate is Get; DynamoDB has no row locks, so Update's version condition guards
// against concurrent writers.
func (r *orderRepository) GetForUpdate(ctx context.Context, id order.ID) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *orderRepository) ListPendingCreatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	return r.uow.store.listPendingCreatedBefore(ctx, cutoff, limit)
}
