package broker

import (
	"context"
	"testing"
	"time"

	"carservice/internal/adapters/out/broker/brokertest"
	"carservice/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Delivers(t *testing.T) {
	b := NewLocal()
	defer b.Close()

	brokertest.AssertDelivers(t, b)
	assert.Eventually(t, func() bool { return b.listenerCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLocal_FansOutToEveryListener(t *testing.T) {
	b := NewLocal()
	defer b.Close()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	first := make(chan order.Snapshot, 1)
	second := make(chan order.Snapshot, 1)
	go func() { _ = b.Listen(ctx, func(s order.Snapshot) { first <- s }) }()
	go func() { _ = b.Listen(ctx, func(s order.Snapshot) { second <- s }) }()
	require.Eventually(t, func() bool { return b.listenerCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(ctx, brokertest.Fixture()))

	assert.Equal(t, "ORD-2024-001", (<-first).ID)
	assert.Equal(t, "ORD-2024-001", (<-second).ID)
}

func TestLocal_HandlersReceiveCopies(t *testing.T) {
	b := NewLocal()
	defer b.Close()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	received := make(chan order.Snapshot, 1)
	go func() { _ = b.Listen(ctx, func(s order.Snapshot) { received <- s }) }()
	require.Eventually(t, func() bool { return b.listenerCount() == 1 }, time.Second, 5*time.Millisecond)

	published := brokertest.Fixture()
	require.NoError(t, b.Publish(ctx, published))
	got := <-received
	*got.EstimatedArrival = got.EstimatedArrival.Add(time.Hour)

	assert.True(t, brokertest.Fixture().EstimatedArrival.Equal(*published.EstimatedArrival))
}

func TestLocal_PublishWithoutListeners(t *testing.T) {
	b := NewLocal()
	defer b.Close()

	assert.NoError(t, b.Publish(t.Context(), brokertest.Fixture()))
}

func TestLocal_Close(t *testing.T) {
	b := NewLocal()

	done := make(chan error, 1)
	go func() { done <- b.Listen(context.Background(), func(order.Snapshot) {}) }()
	require.Eventually(t, func() bool { return b.listenerCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBrokerClosed)
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after Close")
	}
	assert.ErrorIs(t, b.Publish(t.Context(), brokertest.Fixture()), ErrBrokerClosed)
	assert.ErrorIs(t, b.Listen(t.Context(), func(order.Snapshot) {}), ErrBrokerClosed)
}
