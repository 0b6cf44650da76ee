// Package memory provides a process-local order store.
//
// Store keeps snapshots in a map guarded by a single mutex. Units of work buffer their
// writes and apply them atomically on Commit after checking every expected version, so
// concurrent writers observe the same optimistic-locking behaviour as the database stores.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"
	"carservice/internal/pkg/errs"
)

var (
	_ ports.UnitOfWorkFactory = (*Store)(nil)
	_ ports.OrderReader       = (*Store)(nil)
)

// Store holds orders in memory. The zero value is not usable; call NewStore.
type Store struct {
	mu     sync.RWMutex
	orders map[string]order.Snapshot
}

func NewStore() *Store {
	return &Store{orders: make(map[string]order.Snapshot)}
}

// Create returns a new unit of work over the store.
func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

func (s *Store) GetSnapshot(_ context.Context, id order.ID) (order.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.orders[id.String()]
	if !ok {
		return order.Snapshot{}, errs.NewObjectNotFoundError("order", id.String())
	}
	return snap.Clone(), nil
}

func (s *Store) ListSnapshots(_ context.Context, filter ports.ListFilter) ([]order.Snapshot, error) {
	return s.collect(func(snap order.Snapshot) bool {
		return filter.UserID == "" || snap.UserID == filter.UserID
	}), nil
}

func (s *Store) SearchSnapshots(_ context.Context, query string) ([]order.Snapshot, error) {
	return s.collect(func(snap order.Snapshot) bool {
		id, err := order.ParseID(snap.ID)
		return err == nil && id.Matches(query)
	}), nil
}

func (s *Store) collect(match func(order.Snapshot) bool) []order.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Snapshot, 0)
	for _, snap := range s.orders {
		if match(snap) {
			out = append(out, snap.Clone())
		}
	}
	slices.SortFunc(out, order.NewerFirst)
	return out
}

func (s *Store) get(id order.ID) (*order.Order, error) {
	s.mu.RLock()
	snap, ok := s.orders[id.String()]
	s.mu.RUnlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(snap)
}

func (s *Store) listPendingCreatedBefore(cutoff time.Time, limit int) ([]*order.Order, error) {
	s.mu.RLock()
	snaps := make([]order.Snapshot, 0)
	for _, snap := range s.orders {
		if snap.Status == order.Pending && snap.CreatedAt.Before(cutoff) {
			snaps = append(snaps, snap)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(snaps, func(a, b order.Snapshot) int { return order.NewerFirst(b, a) })
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	orders := make([]*order.Order, 0, len(snaps))
	for _, snap := range snaps {
		o, err := order.RestoreOrder(snap)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// apply checks every write against the current state and, only if all pass, stores them.
func (s *Store) apply(writes []write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]int64, len(writes))
	for _, w := range writes {
		version, exists := staged[w.snapshot.ID]
		if !exists {
			var current order.Snapshot
			if current, exists = s.orders[w.snapshot.ID]; exists {
				version = current.Version
			}
		}
		switch {
		case w.isNew && exists:
			return errs.NewValueIsInvalidErrorWithCause("order id is invalid",
				fmt.Errorf("order %s already exists", w.snapshot.ID))
		case !w.isNew && !exists:
			return errs.NewObjectNotFoundError("order", w.snapshot.ID)
		case !w.isNew && version != w.expectedVersion:
			return errs.NewConcurrencyConflictError("order", w.snapshot.ID, w.expectedVersion)
		}
		staged[w.snapshot.ID] = w.snapshot.Version
	}

	for _, w := range writes {
		s.orders[w.snapshot.ID] = w.snapshot.Clone()
	}
	return nil
}
