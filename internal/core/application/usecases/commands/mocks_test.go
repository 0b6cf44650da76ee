package commands_test

import (
	"context"
	"sync"
	"time"

	"carservice/internal/adapters/out/memory"
	"carservice/internal/core/application/usecases/commands"
	"carservice/internal/core/domain/model/kernel"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order, expectedVersion int64) error {
	args := m.Called(ctx, o, expectedVersion)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id order.ID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id order.ID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) ListPendingCreatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	args := m.Called(ctx, cutoff, limit)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockOrderUoW) Committed() []order.Snapshot {
	args := m.Called()
	snapshots, _ := args.Get(0).([]order.Snapshot)
	return snapshots
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

// recordingNotifier remembers every snapshot it was handed.
type recordingNotifier struct {
	mu        sync.Mutex
	snapshots []order.Snapshot
}

func (n *recordingNotifier) Notify(_ context.Context, snapshots ...order.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots = append(n.snapshots, snapshots...)
}

func (n *recordingNotifier) statuses() []order.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]order.Status, 0, len(n.snapshots))
	for _, s := range n.snapshots {
		out = append(out, s.Status)
	}
	return out
}

// storeFactory runs handlers against the in-memory store.
type storeFactory struct {
	store *memory.Store
}

func (f storeFactory) Create() commands.OrderUoW {
	return f.store.Create()
}

// steppingClock advances by one minute on every reading.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: baseTime}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func fixedClock(t time.Time) kernel.Clock {
	return kernel.ClockFunc(func() time.Time { return t })
}

func newPendingOrder(id string, createdAt time.Time) *order.Order {
	st, err := order.NewServiceType("Brake Issues")
	if err != nil {
		panic(err)
	}
	o, err := order.NewOrder(order.MustParseID(id), order.Details{
		ServiceType: st,
		Urgency:     order.UrgencyMedium,
		Description: "soft pedal",
	}, createdAt)
	if err != nil {
		panic(err)
	}
	return o
}
