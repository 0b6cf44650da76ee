// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management,
// persistence, and finally notification of the committed snapshots.
package commands

import (
	"context"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles the transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// CommitTracker reports what the last successful commit wrote.
	CommitTracker interface {
		Committed() []order.Snapshot
	}

	// OrderUoW manages transactions for order operations.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   repo := uow.OrderRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	//   notifier.Notify(ctx, uow.Committed()...)
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		CommitTracker
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}
)

// UpdateNotifier receives snapshots after they are committed. Implementations must
// not block on subscribers and must not fail the command.
type UpdateNotifier interface {
	Notify(ctx context.Context, snapshots ...order.Snapshot)
}
