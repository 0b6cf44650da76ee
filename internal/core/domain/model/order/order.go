package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"carservice/internal/core/domain/model/kernel"
	"carservice/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 2000

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Details holds the customer-supplied attributes of a new order.
type Details struct {
	ServiceType ServiceType
	Urgency     Urgency
	Description string
	Vehicle     Vehicle
	// Location is where the customer wants the mechanic to come.
	Location string
	UserID   string
	// Mechanic is set when the customer picked a workshop before submitting.
	Mechanic Mechanic
}

// StatusChange is a request to move an order along its lifecycle, together with the
// data that the target status brings with it.
type StatusChange struct {
	To Status

	// Mechanic may only accompany a transition to Accepted.
	Mechanic *Mechanic

	// EstimatedArrival and EstimatedCompletion may accompany Accepted and InProgress.
	EstimatedArrival    *time.Time
	EstimatedCompletion *time.Time

	// TotalCost is required for, and only allowed with, Completed.
	TotalCost *decimal.Decimal
}

// Order is the aggregate root tying a customer's problem description to a mechanic and a
// lifecycle status.
//
// Order follows these invariants:
//   - id is assigned once and never changes
//   - status moves only along the edges defined by Status.Transition
//   - Accepted and InProgress orders always have a mechanic
//   - totalCost is present exactly when status is Completed
//   - updatedAt strictly increases with every mutation and never precedes createdAt
//   - urgency is fixed at creation
type Order struct {
	id          ID
	serviceType ServiceType
	status      Status
	mechanic    Mechanic

	estimatedArrival    *time.Time
	estimatedCompletion *time.Time
	totalCost           *decimal.Decimal

	createdAt time.Time
	updatedAt time.Time

	vehicle     Vehicle
	description string
	urgency     Urgency
	location    string
	userID      string

	// version counts committed mutations and backs optimistic locking in stores.
	version int64

	isConstructed bool
}

// NewOrder creates a Pending order stamped with now.
//
// Example:
//
//	st, _ := order.NewServiceType("Brake Issues")
//	o, err := order.NewOrder(order.NewID(now), order.Details{
//	    ServiceType: st,
//	    Urgency:     order.UrgencyMedium,
//	    Description: "soft pedal",
//	}, now)
//
// All field errors are reported together.
func NewOrder(id ID, details Details, now time.Time) (*Order, error) {
	now = kernel.Truncate(now)
	o := &Order{
		status:        Pending,
		createdAt:     now,
		updatedAt:     now,
		version:       1,
		vehicle:       details.Vehicle,
		location:      strings.TrimSpace(details.Location),
		userID:        strings.TrimSpace(details.UserID),
		mechanic:      details.Mechanic,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setServiceType(details.ServiceType),
		o.setUrgency(details.Urgency),
		o.setDescription(details.Description),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an aggregate from its persisted snapshot and re-checks every
// invariant, so corrupted rows surface as errors instead of invalid orders.
func RestoreOrder(s Snapshot) (*Order, error) {
	id, err := ParseID(s.ID)
	if err != nil {
		return nil, err
	}

	serviceType, err := NewServiceType(s.ServiceType)
	if err != nil {
		return nil, err
	}

	vehicle, err := NewVehicle(s.CarMake, s.CarModel, s.CarYear)
	if err != nil {
		return nil, err
	}

	var mechanic Mechanic
	if strings.TrimSpace(s.MechanicName) != "" {
		if mechanic, err = NewMechanic(s.MechanicName, s.MechanicPhone, s.MechanicLocation); err != nil {
			return nil, err
		}
	}

	o := &Order{
		status:              s.Status,
		mechanic:            mechanic,
		estimatedArrival:    copyTime(s.EstimatedArrival),
		estimatedCompletion: copyTime(s.EstimatedCompletion),
		totalCost:           copyDecimal(s.TotalCost),
		createdAt:           kernel.Truncate(s.CreatedAt),
		updatedAt:           kernel.Truncate(s.UpdatedAt),
		vehicle:             vehicle,
		location:            s.Location,
		userID:              s.UserID,
		version:             s.Version,
		isConstructed:       true,
	}

	if err = errors.Join(
		o.setID(id),
		o.setServiceType(serviceType),
		o.setUrgency(s.Urgency),
		o.setDescription(s.Description),
		o.validateRestoredState(),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() ID                              { return o.id }
func (o *Order) ServiceType() ServiceType            { return o.serviceType }
func (o *Order) Status() Status                      { return o.status }
func (o *Order) Mechanic() Mechanic                  { return o.mechanic }
func (o *Order) EstimatedArrival() *time.Time        { return copyTime(o.estimatedArrival) }
func (o *Order) EstimatedCompletion() *time.Time     { return copyTime(o.estimatedCompletion) }
func (o *Order) TotalCost() *decimal.Decimal         { return copyDecimal(o.totalCost) }
func (o *Order) CreatedAt() time.Time                { return o.createdAt }
func (o *Order) UpdatedAt() time.Time                { return o.updatedAt }
func (o *Order) Vehicle() Vehicle                    { return o.vehicle }
func (o *Order) Description() string                 { return o.description }
func (o *Order) Urgency() Urgency                    { return o.urgency }
func (o *Order) Location() string                    { return o.location }
func (o *Order) UserID() string                      { return o.userID }
func (o *Order) Version() int64                      { return o.version }
func (o *Order) IsEqual(other *Order) bool           { return other != nil && o.id.IsEqual(other.id) }
func (o *Order) BelongsTo(userID string) bool        { return userID != "" && o.userID == userID }
func (o *Order) CreatedBefore(cutoff time.Time) bool { return o.createdAt.Before(cutoff) }

// ChangeStatus applies a lifecycle transition.
//
// The edge is checked first, so an illegal transition is always reported as
// *errs.InvalidTransitionError regardless of the accompanying data. The order is left
// untouched when any check fails.
func (o *Order) ChangeStatus(change StatusChange, now time.Time) error {
	next, err := o.status.Transition(change.To)
	if err != nil {
		return err
	}

	mechanic := o.mechanic
	if change.Mechanic != nil {
		mechanic = *change.Mechanic
	}

	arrival := o.estimatedArrival
	if change.EstimatedArrival != nil {
		arrival = change.EstimatedArrival
	}
	completion := o.estimatedCompletion
	if change.EstimatedCompletion != nil {
		completion = change.EstimatedCompletion
	}

	if err = errors.Join(
		validateMechanicChange(next, change.Mechanic, mechanic),
		validateScheduleChange(next, change, arrival, completion),
		validateCostChange(next, change.TotalCost),
	); err != nil {
		return err
	}

	o.status = next
	o.mechanic = mechanic
	o.estimatedArrival = truncatePtr(arrival)
	o.estimatedCompletion = truncatePtr(completion)
	o.totalCost = copyDecimal(change.TotalCost)
	o.touch(now)
	return nil
}

// Accept moves a Pending order to Accepted. mechanic may be nil when one was chosen at
// submission time.
func (o *Order) Accept(mechanic *Mechanic, arrival *time.Time, now time.Time) error {
	return o.ChangeStatus(StatusChange{To: Accepted, Mechanic: mechanic, EstimatedArrival: arrival}, now)
}

// Start moves an Accepted order to InProgress.
func (o *Order) Start(completion *time.Time, now time.Time) error {
	return o.ChangeStatus(StatusChange{To: InProgress, EstimatedCompletion: completion}, now)
}

// Complete moves an InProgress order to Completed with its final price.
func (o *Order) Complete(totalCost decimal.Decimal, now time.Time) error {
	return o.ChangeStatus(StatusChange{To: Completed, TotalCost: &totalCost}, now)
}

// Cancel withdraws a non-terminal order.
func (o *Order) Cancel(now time.Time) error {
	return o.ChangeStatus(StatusChange{To: Cancelled}, now)
}

// Snapshot returns an immutable copy of the order's state for readers and subscribers.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                  o.id.String(),
		ServiceType:         o.serviceType.String(),
		Status:              o.status,
		MechanicName:        o.mechanic.Name(),
		MechanicPhone:       o.mechanic.Phone(),
		MechanicLocation:    o.mechanic.Location(),
		EstimatedArrival:    copyTime(o.estimatedArrival),
		EstimatedCompletion: copyTime(o.estimatedCompletion),
		TotalCost:           copyDecimal(o.totalCost),
		CreatedAt:           o.createdAt,
		UpdatedAt:           o.updatedAt,
		CarMake:             o.vehicle.Make(),
		CarModel:            o.vehicle.Model(),
		CarYear:             o.vehicle.Year(),
		Description:         o.description,
		Urgency:             o.urgency,
		Location:            o.location,
		UserID:              o.userID,
		Version:             o.version,
	}
}

// touch stamps a committed mutation. Timestamps never repeat or go backwards even if
// the clock does.
func (o *Order) touch(now time.Time) {
	now = kernel.Truncate(now)
	if !now.After(o.updatedAt) {
		now = o.updatedAt.Add(time.Microsecond)
	}
	o.updatedAt = now
	o.version++
}

func (o *Order) setID(id ID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setServiceType(serviceType ServiceType) error {
	if err := serviceType.Validate(); err != nil {
		return err
	}
	o.serviceType = serviceType
	return nil
}

func (o *Order) setUrgency(urgency Urgency) error {
	if err := urgency.Validate(); err != nil {
		return err
	}
	o.urgency = urgency
	return nil
}

func (o *Order) setDescription(description string) error {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return errs.NewValueIsRequiredError("description")
	}
	if n := utf8.RuneCountInString(trimmed); n > maxDescriptionLength {
		return errs.NewValueIsOutOfRangeError("description length", n, 1, maxDescriptionLength)
	}
	o.description = trimmed
	return nil
}

func (o *Order) validateRestoredState() error {
	if err := o.status.Validate(); err != nil {
		return err
	}
	if o.createdAt.IsZero() {
		return errs.NewValueIsRequiredError("created_at")
	}
	if o.updatedAt.Before(o.createdAt) {
		return errs.NewValueIsInvalidErrorWithCause("updated_at is invalid",
			fmt.Errorf("%s precedes created_at %s", o.updatedAt, o.createdAt))
	}
	if o.version < 1 {
		return errs.NewValueIsOutOfRangeError("version", o.version, 1, "unbounded")
	}
	if o.status.IsActive() && o.mechanic.IsZero() {
		return errs.NewValueIsRequiredErrorWithCause("mechanic_name",
			fmt.Errorf("%s orders must have a mechanic", o.status))
	}
	if (o.status == Completed) != (o.totalCost != nil) {
		return errs.NewValueIsInvalidErrorWithCause("total_cost is invalid",
			fmt.Errorf("total cost must be set exactly when the order is completed, status is %s", o.status))
	}
	return nil
}

func validateMechanicChange(next Status, supplied *Mechanic, resulting Mechanic) error {
	if supplied != nil && next != Accepted {
		return errs.NewValueIsInvalidErrorWithCause("mechanic is invalid",
			fmt.Errorf("a mechanic can only be assigned when accepting, not when moving to %s", next))
	}
	if supplied != nil && supplied.IsZero() {
		return errs.NewValueIsRequiredError("mechanic_name")
	}
	if next.IsActive() && resulting.IsZero() {
		return errs.NewValueIsRequiredErrorWithCause("mechanic_name",
			fmt.Errorf("%s orders must have a mechanic", next))
	}
	return nil
}

func validateScheduleChange(next Status, change StatusChange, arrival, completion *time.Time) error {
	if (change.EstimatedArrival != nil || change.EstimatedCompletion != nil) && !next.IsActive() {
		return errs.NewValueIsInvalidErrorWithCause("estimates are invalid",
			fmt.Errorf("estimates cannot be set when moving to %s", next))
	}
	if arrival != nil && completion != nil && completion.Before(*arrival) {
		return errs.NewValueIsInvalidErrorWithCause("estimated_completion is invalid",
			fmt.Errorf("completion %s precedes arrival %s", completion, arrival))
	}
	return nil
}

func validateCostChange(next Status, cost *decimal.Decimal) error {
	switch {
	case next == Completed && cost == nil:
		return errs.NewValueIsRequiredErrorWithCause("total_cost", errors.New("completed orders must be priced"))
	case next != Completed && cost != nil:
		return errs.NewValueIsInvalidErrorWithCause("total_cost is invalid",
			fmt.Errorf("total cost can only be set on completion, not when moving to %s", next))
	case cost != nil && cost.IsNegative():
		return errs.NewValueIsOutOfRangeError("total_cost", cost.String(), 0, "unbounded")
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func truncatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := kernel.Truncate(*t)
	return &c
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
