// Package queries contains read-only operations over orders.
// Handlers read snapshots through ports.OrderReader without a unit of work and
// decorate them with countdowns computed at read time.
package queries

import (
	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/domain/services"
)

// OrderView is an order as presented to callers. The ETA strings are derived from the
// clock at the moment the view was built and go stale within a minute.
type OrderView struct {
	order.Snapshot

	// ArrivalETA counts down to EstimatedArrival: "TBD", "Now", "N min" or "Hh Mm".
	ArrivalETA string

	// CompletionETA counts down to EstimatedCompletion in the same format.
	CompletionETA string
}

// NewOrderView decorates s with countdowns from estimator.
func NewOrderView(s order.Snapshot, estimator services.TimeEstimator) OrderView {
	return OrderView{
		Snapshot:      s,
		ArrivalETA:    estimator.Estimate(s.EstimatedArrival),
		CompletionETA: estimator.Estimate(s.EstimatedCompletion),
	}
}

func newOrderViews(snapshots []order.Snapshot, estimator services.TimeEstimator) []OrderView {
	views := make([]OrderView, 0, len(snapshots))
	for _, s := range snapshots {
		views = append(views, NewOrderView(s, estimator))
	}
	return views
}
