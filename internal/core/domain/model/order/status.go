package order

import (
	"fmt"
	"strings"

	"carservice/internal/pkg/errs"
)

// Status represents the lifecycle state of a repair order.
// It implements a state machine with a fixed set of forward transitions;
// cancellation is the only way to leave the happy path.
//
// State transitions:
//
//	Pending ──> Accepted ──> InProgress ──> Completed
//	   │            │             │
//	   └────────────┴─────────────┴──────> Cancelled
//
// Completed and Cancelled are terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of a submitted request waiting for a mechanic.
	Pending

	// Accepted indicates a mechanic has taken the request.
	Accepted

	// InProgress indicates the mechanic is on the way or working on the car.
	InProgress

	// Completed indicates the repair is finished and priced. Terminal.
	Completed

	// Cancelled indicates the request was withdrawn before completion. Terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Accepted:   "accepted",
		InProgress: "in_progress",
		Completed:  "completed",
		Cancelled:  "cancelled",
	}
}

// getTransitions lists the outgoing edges of every non-terminal status.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal and unknown statuses have no outgoing edges
	return map[Status][]Status{
		Pending:    {Accepted, Cancelled},
		Accepted:   {InProgress, Cancelled},
		InProgress: {Completed, Cancelled},
	}
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Accepted, InProgress, Completed, Cancelled}
}

// ParseStatus converts the wire representation ("pending", "in_progress", ...) into a Status.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if needle == "" {
		return Unknown, errs.NewValueIsRequiredError("status")
	}
	for status, str := range getStatusStrings() {
		if status != Unknown && str == needle {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a known status", s))
}

// Validate checks if the Status value is one of the five lifecycle states.
func (s Status) Validate() error {
	if s < Pending || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status, or "unknown" for invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// IsActive reports whether a mechanic is engaged with the order.
func (s Status) IsActive() bool {
	return s == Accepted || s == InProgress
}

// CanTransitionTo reports whether to is a direct successor of s.
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range getTransitions()[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates the edge s -> to and returns the new status.
//
// Returns:
//   - (to, nil) when the edge exists
//   - (Unknown, *errs.InvalidTransitionError) for skipped, reversed, repeated
//     or post-terminal transitions
func (s Status) Transition(to Status) (Status, error) {
	if !s.CanTransitionTo(to) {
		return Unknown, errs.NewInvalidTransitionError(s, to)
	}
	return to, nil
}

// MarshalText encodes the status as its wire name.
func (s Status) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a wire name produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
