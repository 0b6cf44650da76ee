package order

import (
	"strings"

	"carservice/internal/pkg/errs"
)

// Mechanic is the caller-supplied reference to the workshop handling an order.
// Mechanics are managed elsewhere; the order only keeps what the tracking view shows.
type Mechanic struct {
	name     string
	phone    string
	location string
}

// NewMechanic requires a name; phone and location are optional.
func NewMechanic(name, phone, location string) (Mechanic, error) {
	m := Mechanic{
		name:     strings.TrimSpace(name),
		phone:    strings.TrimSpace(phone),
		location: strings.TrimSpace(location),
	}
	if m.name == "" {
		return Mechanic{}, errs.NewValueIsRequiredError("mechanic_name")
	}
	return m, nil
}

func (m Mechanic) Name() string     { return m.name }
func (m Mechanic) Phone() string    { return m.phone }
func (m Mechanic) Location() string { return m.location }

// IsZero reports whether no mechanic is attached.
func (m Mechanic) IsZero() bool {
	return m.name == ""
}
