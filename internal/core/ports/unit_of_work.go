package ports

import (
	"context"

	"carservice/internal/core/domain/model/order"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// It provides transaction control and tracks aggregate changes.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new transaction. Calling Begin twice is a no-op.
	Begin(ctx context.Context) error

	// Commit makes every write since Begin visible.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback discards every write since Begin.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository bound to the current transaction.
	OrderRepository() OrderRepository

	// Committed returns the snapshots of orders written by the last successful Commit,
	// in write order. Callers publish them to subscribers.
	Committed() []order.Snapshot
}

// UpdateBroker carries committed order snapshots between service instances.
type UpdateBroker interface {
	// Publish sends snapshot to every instance listening on the broker.
	Publish(ctx context.Context, snapshot order.Snapshot) error

	// Listen delivers every published snapshot to handle until ctx is cancelled.
	// It blocks and returns ctx.Err() or the first unrecoverable transport error.
	Listen(ctx context.Context, handle func(order.Snapshot)) error

	// Close releases the broker connection.
	Close() error
}
