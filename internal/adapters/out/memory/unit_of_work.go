package memory

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

// UnitOfWork buffers writes until Commit. Without Begin every write is applied at once.
type UnitOfWork struct {
	store     *Store
	active    bool
	pending   []write
	committed []order.Snapshot
}

func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.active {
		return nil
	}
	uow.active = true
	uow.pending = nil
	return nil
}

func (uow *UnitOfWork) Commit(_ context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}
	writes := uow.pending
	uow.active = false
	uow.pending = nil

	if err := uow.store.apply(writes); err != nil {
		return err
	}
	uow.committed = snapshotsOf(writes)
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

func (uow *UnitOfWork) record(w write) error {
	if uow.active {
		uow.pending = append(uow.pending, w)
		return nil
	}
	if err := uow.store.apply([]write{w}); err != nil {
		return err
	}
	uow.committed = snapshotsOf([]write{w})
	return nil
}

// lookup returns the latest buffered write for id, so a transaction reads its own writes.
func (uow *UnitOfWork) lookup(id order.ID) (order.Snapshot, bool) {
	for i := len(uow.pending) - 1; i >= 0; i-- {
		if uow.pending[i].snapshot.ID == id.String() {
			return uow.pending[i].snapshot, true
		}
	}
	return order.Snapshot{}, false
}

func snapshotsOf(writes []write) []order.Snapshot {
	out := make([]order.Snapshot, 0, len(writes))
	for _, w := range writes {
		out = append(out, w.snapshot.Clone())
	}
	return out
}

type orderRepository struct {
	uow *UnitOfWork
}

func (r *orderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.record(write{snapshot: aggregate.Snapshot(), isNew: true})
}

func (r *orderRepository) Update(_ context.Context, aggregate *order.Order, expectedVersion int64) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.record(write{snapshot: aggregate.Snapshot(), expectedVersion: expectedVersion})
}

func (r *orderRepository) Get(_ context.Context, id order.ID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if snap, ok := r.uow.lookup(id); ok {
		return order.RestoreOrder(snap)
	}
	return r.uow.store.get(id)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id order.ID) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *orderRepository) ListPendingCreatedBefore(
	_ context.Context,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	return r.uow.store.listPendingCreatedBefore(cutoff, limit)
}
