package commands

import (
	"errors"
	"time"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/pkg/errs"
	"carservice/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrChangeOrderStatusCommandIsNotConstructed = errors.New(
	"ChangeOrderStatusCommand must be created via NewChangeOrderStatusCommand constructor",
)

// ChangeOrderStatusInput carries a status change as received from a caller.
// Mechanic fields are only meaningful with "accepted", the estimates with "accepted"
// and "in_progress", and TotalCost with "completed".
type ChangeOrderStatusInput struct {
	OrderID string
	Status  string

	MechanicName     string
	MechanicPhone    string
	MechanicLocation string

	EstimatedArrival    *time.Time
	EstimatedCompletion *time.Time
	TotalCost           *decimal.Decimal
}

// ChangeOrderStatusCommand moves one order along its lifecycle.
type ChangeOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID order.ID
	change  order.StatusChange

	guard guard.ConstructorGuard
}

func NewChangeOrderStatusCommand(in ChangeOrderStatusInput) (ChangeOrderStatusCommand, error) {
	cmd := ChangeOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(in.OrderID),
		cmd.setStatus(in.Status),
		cmd.setMechanic(in.MechanicName, in.MechanicPhone, in.MechanicLocation),
		cmd.setTotalCost(in.TotalCost),
	); err != nil {
		return ChangeOrderStatusCommand{}, err
	}
	cmd.change.EstimatedArrival = in.EstimatedArrival
	cmd.change.EstimatedCompletion = in.EstimatedCompletion

	return cmd, nil
}

func (c ChangeOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangeOrderStatusCommandIsNotConstructed)
}

func (c ChangeOrderStatusCommand) OrderID() order.ID {
	return c.orderID
}

func (c ChangeOrderStatusCommand) Change() order.StatusChange {
	return c.change
}

func (c *ChangeOrderStatusCommand) setOrderID(s string) error {
	id, err := order.ParseID(s)
	if err != nil {
		return err
	}
	c.orderID = id
	return nil
}

func (c *ChangeOrderStatusCommand) setStatus(s string) error {
	status, err := order.ParseStatus(s)
	if err != nil {
		return err
	}
	c.change.To = status
	return nil
}

func (c *ChangeOrderStatusCommand) setMechanic(name, phone, location string) error {
	if name == "" && phone == "" && location == "" {
		return nil
	}
	m, err := order.NewMechanic(name, phone, location)
	if err != nil {
		return err
	}
	c.change.Mechanic = &m
	return nil
}

func (c *ChangeOrderStatusCommand) setTotalCost(cost *decimal.Decimal) error {
	if cost == nil {
		return nil
	}
	if cost.IsNegative() {
		return errs.NewValueIsOutOfRangeError("total_cost", cost.String(), 0, "unbounded")
	}
	value := *cost
	c.change.TotalCost = &value
	return nil
}
