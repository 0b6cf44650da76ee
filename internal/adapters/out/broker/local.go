package broker

import (
	"context"
	"errors"
	"sync"

	"carservice/internal/core/domain/model/order"
)

var ErrBrokerClosed = errors.New("broker is closed")

// Local delivers published snapshots to the listeners of the same process.
// Publish calls every handler synchronously, so handlers must not block.
type Local struct {
	mu        sync.RWMutex
	listeners map[int]func(order.Snapshot)
	nextID    int
	closed    chan struct{}
	closeOnce sync.Once
}

func NewLocal() *Local {
	return &Local{
		listeners: make(map[int]func(order.Snapshot)),
		closed:    make(chan struct{}),
	}
}

func (b *Local) Publish(_ context.Context, snapshot order.Snapshot) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	select {
	case <-b.closed:
		return ErrBrokerClosed
	default:
	}
	for _, handle := range b.listeners {
		handle(snapshot.Clone())
	}
	return nil
}

func (b *Local) Listen(ctx context.Context, handle func(order.Snapshot)) error {
	b.mu.Lock()
	select {
	case <-b.closed:
		b.mu.Unlock()
		return ErrBrokerClosed
	default:
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = handle
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.closed:
		return ErrBrokerClosed
	}
}

// Close wakes every listener. Further publishes fail with ErrBrokerClosed.
func (b *Local) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		close(b.closed)
		b.mu.Unlock()
	})
	return nil
}

// listenerCount is used by tests to wait until a listener is registered.
func (b *Local) listenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
