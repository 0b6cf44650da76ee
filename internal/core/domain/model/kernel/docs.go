// Package kernel provides the primitives shared by the order domain.
//
// The package includes:
//   - Clock: the injected time source used for lifecycle timestamps and countdowns
//   - ClockFunc: a function adapter used by tests and schedulers to pin the current time
//   - Truncate: microsecond UTC normalisation applied to every stored timestamp
package kernel
