// Package gormstore provides the GORM-backed order store used with PostgreSQL and SQLite.
//
// A unit of work wraps one database transaction. Repositories obtained from it run inside
// that transaction and report every aggregate they write back to the unit of work, which
// exposes the written snapshots after a successful Commit so callers can notify
// subscribers.
//
// Usage:
//
//	factory := gormstore.NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	if err := uow.OrderRepository().Add(ctx, o); err != nil {
//	    return err
//	}
//	if err := uow.Commit(ctx); err != nil {
//	    return err
//	}
//	publish(uow.Committed())
//
// Concurrency:
//   - Each UnitOfWork instance provides an isolated transaction
//   - Multiple goroutines should use separate UnitOfWork instances
//   - GetForUpdate locks the row on PostgreSQL; Update always checks the version
package gormstore

import (
	"context"

	"carservice/internal/adapters/out/gormstore/orderrepo"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate is an order written during the unit of work.
type trackedAggregate struct {
	ID       order.ID
	Snapshot order.Snapshot
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gormstore.OpenPostgres(dsn)
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := gormstore.NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance with its own transaction state.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction and tracks the orders written in it.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
	committed         []order.Snapshot
}

// Begin initiates a new database transaction for the unit of work.
// Multiple calls to Begin on the same instance are safe and will not create nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	uow.trackedAggregates = uow.trackedAggregates[:0]
	return nil
}

// Commit finalizes all changes made within the current transaction.
// After commit, the transaction is closed and cannot be reused.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.trackedAggregates = uow.trackedAggregates[:0]
		return err
	}

	uow.committed = uow.drainTracked()
	return nil
}

// Rollback discards all changes made within the current transaction.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// OrderRepository provides access to order persistence within the unit of work.
// Without an active transaction the repository writes directly through the pool.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	db := uow.db
	if uow.tx != nil {
		db = uow.tx
	}
	return orderrepo.NewGormOrderRepository(db, uow)
}

// Committed returns the snapshots written by the last successful Commit.
func (uow *GormUnitOfWork) Committed() []order.Snapshot {
	return uow.committed
}

// TrackAggregate registers an order written within this unit of work. Outside a
// transaction the write is already durable, so it counts as committed at once.
func (uow *GormUnitOfWork) TrackAggregate(id order.ID, aggregate *order.Order) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:       id,
		Snapshot: aggregate.Snapshot(),
	})
	if uow.tx == nil {
		uow.committed = uow.drainTracked()
	}
}

func (uow *GormUnitOfWork) drainTracked() []order.Snapshot {
	out := make([]order.Snapshot, 0, len(uow.trackedAggregates))
	for _, t := range uow.trackedAggregates {
		out = append(out, t.Snapshot)
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return out
}
