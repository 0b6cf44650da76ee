package commands

import (
	"errors"
	"strings"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/pkg/errs"
	"carservice/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderInput carries the raw values of a service request form.
// Only ServiceType, Urgency and Description are required.
type CreateOrderInput struct {
	ServiceType string
	Urgency     string
	Description string

	CarMake  string
	CarModel string
	CarYear  int

	Location string
	UserID   string

	MechanicName     string
	MechanicPhone    string
	MechanicLocation string
}

// CreateOrderCommand represents a customer's request for roadside or workshop service.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(CreateOrderInput{
//	    ServiceType: "Brake Issues",
//	    Urgency:     "medium",
//	    Description: "soft pedal",
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid request: %w", err)
//	}
//	snapshot, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	details order.Details

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand parses and validates the form. Every invalid field is reported.
func NewCreateOrderCommand(in CreateOrderInput) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setServiceType(in.ServiceType),
		cmd.setUrgency(in.Urgency),
		cmd.setDescription(in.Description),
		cmd.setVehicle(in.CarMake, in.CarModel, in.CarYear),
		cmd.setMechanic(in.MechanicName, in.MechanicPhone, in.MechanicLocation),
	); err != nil {
		return CreateOrderCommand{}, err
	}
	cmd.details.Location = strings.TrimSpace(in.Location)
	cmd.details.UserID = strings.TrimSpace(in.UserID)

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// Details returns the attributes of the order to create.
func (c CreateOrderCommand) Details() order.Details {
	return c.details
}

func (c *CreateOrderCommand) setServiceType(s string) error {
	st, err := order.NewServiceType(s)
	if err != nil {
		return err
	}
	c.details.ServiceType = st
	return nil
}

func (c *CreateOrderCommand) setUrgency(s string) error {
	u, err := order.ParseUrgency(s)
	if err != nil {
		return err
	}
	c.details.Urgency = u
	return nil
}

func (c *CreateOrderCommand) setDescription(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errs.NewValueIsRequiredError("description")
	}
	c.details.Description = s
	return nil
}

func (c *CreateOrderCommand) setVehicle(carMake, carModel string, year int) error {
	v, err := order.NewVehicle(carMake, carModel, year)
	if err != nil {
		return err
	}
	c.details.Vehicle = v
	return nil
}

func (c *CreateOrderCommand) setMechanic(name, phone, location string) error {
	if name == "" && phone == "" && location == "" {
		return nil
	}
	m, err := order.NewMechanic(name, phone, location)
	if err != nil {
		return err
	}
	c.details.Mechanic = m
	return nil
}
