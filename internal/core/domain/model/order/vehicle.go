package order

import (
	"strings"

	"carservice/internal/pkg/errs"
)

const (
	minVehicleYear = 1886
	maxVehicleYear = 2100
)

// Vehicle describes the customer's car. Every field is optional; year 0 means unknown.
type Vehicle struct {
	make  string
	model string
	year  int
}

func NewVehicle(carMake, carModel string, year int) (Vehicle, error) {
	if year != 0 && (year < minVehicleYear || year > maxVehicleYear) {
		return Vehicle{}, errs.NewValueIsOutOfRangeError("car_year", year, minVehicleYear, maxVehicleYear)
	}
	return Vehicle{
		make:  strings.TrimSpace(carMake),
		model: strings.TrimSpace(carModel),
		year:  year,
	}, nil
}

func (v Vehicle) Make() string  { return v.make }
func (v Vehicle) Model() string { return v.model }
func (v Vehicle) Year() int     { return v.year }
