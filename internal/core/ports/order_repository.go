// Package ports defines the contracts between the order core and its infrastructure.
// Stores, brokers and clocks are supplied by adapters and injected at composition time.
package ports

import (
	"context"
	"time"

	"carservice/internal/core/domain/model/order"
)

// OrderRepository defines the transactional persistence contract for order aggregates.
// A repository is always obtained from a UnitOfWork and writes become visible on Commit.
type OrderRepository interface {
	// Add persists a new order. Adding an id that already exists fails.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists a mutated order if the stored version still equals expectedVersion.
	// A concurrent writer that got there first yields *errs.ConcurrencyConflictError.
	//
	// Example:
	//   o, err := repo.GetForUpdate(ctx, id)
	//   loaded := o.Version()
	//   if err = o.Cancel(now); err != nil { ... }
	//   err = repo.Update(ctx, o, loaded)
	Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error

	// Get retrieves an order by id, or *errs.ObjectNotFoundError.
	Get(ctx context.Context, id order.ID) (*order.Order, error)

	// GetForUpdate is Get that additionally locks the record until the transaction ends
	// on stores that support row locks. Other stores rely on the version check in Update.
	GetForUpdate(ctx context.Context, id order.ID) (*order.Order, error)

	// ListPendingCreatedBefore returns at most limit Pending orders created before cutoff,
	// oldest first.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error)
}

// ListFilter narrows ListOrders. The zero value lists every order.
type ListFilter struct {
	UserID string
}

// OrderReader is the read side of a store. It returns snapshots, never aggregates, and
// does not take part in transactions.
type OrderReader interface {
	// GetSnapshot returns the stored state of an order, or *errs.ObjectNotFoundError.
	GetSnapshot(ctx context.Context, id order.ID) (order.Snapshot, error)

	// ListSnapshots returns the orders matching filter, newest first.
	ListSnapshots(ctx context.Context, filter ListFilter) ([]order.Snapshot, error)

	// SearchSnapshots returns the orders whose id contains query, ignoring case, newest first.
	// No match is an empty result, not an error.
	SearchSnapshots(ctx context.Context, query string) ([]order.Snapshot, error)
}
