// Package brokertest holds the behaviour every ports.UpdateBroker implementation must show.
package brokertest

import (
	"context"
	"testing"
	"time"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture returns a completed order snapshot with every optional field set.
func Fixture() order.Snapshot {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	arrival := created.Add(20 * time.Minute)
	completion := created.Add(2 * time.Hour)
	cost := decimal.RequireFromString("800.50")
	return order.Snapshot{
		ID:                  "ORD-2024-001",
		ServiceType:         "Brake Issues",
		Status:              order.Completed,
		MechanicName:        "Dana Ortiz",
		MechanicPhone:       "+1 555 0100",
		MechanicLocation:    "Main St garage",
		EstimatedArrival:    &arrival,
		EstimatedCompletion: &completion,
		TotalCost:           &cost,
		CreatedAt:           created,
		UpdatedAt:           created.Add(3 * time.Hour),
		CarMake:             "Toyota",
		CarModel:            "Corolla",
		CarYear:             2018,
		Description:         "soft pedal",
		Urgency:             order.UrgencyMedium,
		Location:            "5th Avenue",
		UserID:              "user-1",
		Version:             4,
	}
}

// AssertEqualSnapshots compares snapshots field by field, treating equal instants in
// different locations as equal.
func AssertEqualSnapshots(t *testing.T, expected, actual order.Snapshot) {
	t.Helper()
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.ServiceType, actual.ServiceType)
	assert.Equal(t, expected.Status, actual.Status)
	assert.Equal(t, expected.MechanicName, actual.MechanicName)
	assert.Equal(t, expected.MechanicPhone, actual.MechanicPhone)
	assert.Equal(t, expected.MechanicLocation, actual.MechanicLocation)
	assertSameInstant(t, expected.EstimatedArrival, actual.EstimatedArrival)
	assertSameInstant(t, expected.EstimatedCompletion, actual.EstimatedCompletion)
	if expected.TotalCost == nil {
		assert.Nil(t, actual.TotalCost)
	} else if assert.NotNil(t, actual.TotalCost) {
		assert.True(t, expected.TotalCost.Equal(*actual.TotalCost), "total cost %s != %s", expected.TotalCost, actual.TotalCost)
	}
	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt), "created_at %s != %s", expected.CreatedAt, actual.CreatedAt)
	assert.True(t, expected.UpdatedAt.Equal(actual.UpdatedAt), "updated_at %s != %s", expected.UpdatedAt, actual.UpdatedAt)
	assert.Equal(t, expected.CarMake, actual.CarMake)
	assert.Equal(t, expected.CarModel, actual.CarModel)
	assert.Equal(t, expected.CarYear, actual.CarYear)
	assert.Equal(t, expected.Description, actual.Description)
	assert.Equal(t, expected.Urgency, actual.Urgency)
	assert.Equal(t, expected.Location, actual.Location)
	assert.Equal(t, expected.UserID, actual.UserID)
	assert.Equal(t, expected.Version, actual.Version)
}

func assertSameInstant(t *testing.T, expected, actual *time.Time) {
	t.Helper()
	if expected == nil {
		assert.Nil(t, actual)
		return
	}
	if assert.NotNil(t, actual) {
		assert.True(t, expected.Equal(*actual), "%s != %s", expected, actual)
	}
}

// AssertDelivers checks that a broker delivers its own publications to its listeners.
func AssertDelivers(t *testing.T, b ports.UpdateBroker) {
	t.Helper()
	AssertDeliversBetween(t, b, b)
}

// AssertDeliversBetween starts a listener on listener, publishes the fixture through
// publisher until the listener sees it, then cancels the listener and expects Listen to
// return context.Canceled.
//
// Publishing is repeated because subscriptions are established asynchronously and
// updates sent before that are not replayed.
func AssertDeliversBetween(t *testing.T, publisher, listener ports.UpdateBroker) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	received := make(chan order.Snapshot, 64)
	done := make(chan error, 1)
	go func() {
		done <- listener.Listen(ctx, func(s order.Snapshot) {
			select {
			case received <- s:
			default:
			}
		})
	}()

	want := Fixture()
	var got order.Snapshot
	require.Eventually(t, func() bool {
		if err := publisher.Publish(ctx, want); err != nil {
			return false
		}
		select {
		case got = <-received:
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 15*time.Second, 50*time.Millisecond)
	AssertEqualSnapshots(t, want, got)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("Listen did not return after its context was cancelled")
	}
}
