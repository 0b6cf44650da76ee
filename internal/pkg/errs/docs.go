// Package errs provides the typed errors shared by every layer of the order service.
//
// Error classes map onto the caller-visible taxonomy:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: validation failures
//   - ObjectNotFoundError: the requested order does not exist
//   - InvalidTransitionError: the requested status change is not allowed
//   - ConcurrencyConflictError: a store rejected a stale write; the only retryable class
//
// Each error type follows the same pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired) usable with errors.Is
//   - A struct type carrying the details, matched with errors.As
//   - Constructor functions with and without cause where a cause makes sense
//   - Unwrap returning the sentinel
package errs
