package services

import (
	"fmt"
	"math"
	"time"

	"carservice/internal/core/domain/model/kernel"
)

const (
	// EstimateUnknown is shown while no target time has been set.
	EstimateUnknown = "TBD"

	// EstimateDue is shown once the target time has been reached.
	EstimateDue = "Now"
)

// TimeEstimator renders the remaining time until an estimated arrival or completion.
//
// The output changes every minute, so it is computed on every read and never stored.
//
// Example usage:
//
//	estimator := services.NewTimeEstimator(kernel.SystemClock{})
//	estimator.Estimate(o.EstimatedArrival()) // "TBD", "Now", "10 min" or "1h 30m"
type TimeEstimator struct {
	clock kernel.Clock
}

// NewTimeEstimator creates an estimator reading the current time from clock.
func NewTimeEstimator(clock kernel.Clock) TimeEstimator {
	return TimeEstimator{clock: clock}
}

// Estimate formats the time left until target.
//
// Returns:
//   - EstimateUnknown when target is nil
//   - EstimateDue when target is at most half a minute away or already past
//   - "N min" below one hour
//   - "Hh Mm" from one hour on
func (e TimeEstimator) Estimate(target *time.Time) string {
	if target == nil {
		return EstimateUnknown
	}

	minutes := int64(math.Round(target.Sub(e.clock.Now()).Minutes()))
	switch {
	case minutes <= 0:
		return EstimateDue
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	default:
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
}
