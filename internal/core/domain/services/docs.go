// Package services provides domain services that compute derived values from orders
// without belonging to the aggregate itself.
//
// The package includes:
//   - TimeEstimator: renders the remaining time until an estimated arrival or completion
//
// Estimates depend on the current time and are evaluated on every read.
package services
