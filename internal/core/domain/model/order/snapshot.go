package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the flat, immutable view of an order. It is what stores persist, what
// queries return and what subscribers receive; its JSON form is the wire format shared
// by every update broker.
type Snapshot struct {
	ID                  string           `json:"id"`
	ServiceType         string           `json:"service_type"`
	Status              Status           `json:"status"`
	MechanicName        string           `json:"mechanic_name"`
	MechanicPhone       string           `json:"mechanic_phone"`
	MechanicLocation    string           `json:"mechanic_location"`
	EstimatedArrival    *time.Time       `json:"estimated_arrival,omitempty"`
	EstimatedCompletion *time.Time       `json:"estimated_completion,omitempty"`
	TotalCost           *decimal.Decimal `json:"total_cost,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	CarMake             string           `json:"car_make,omitempty"`
	CarModel            string           `json:"car_model,omitempty"`
	CarYear             int              `json:"car_year,omitempty"`
	Description         string           `json:"description"`
	Urgency             Urgency          `json:"urgency"`
	Location            string           `json:"location,omitempty"`
	UserID              string           `json:"user_id,omitempty"`
	Version             int64            `json:"version"`
}

// Clone returns a deep copy whose optional fields do not alias s.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.EstimatedArrival = copyTime(s.EstimatedArrival)
	c.EstimatedCompletion = copyTime(s.EstimatedCompletion)
	c.TotalCost = copyDecimal(s.TotalCost)
	return c
}

// NewerFirst orders snapshots by creation time, newest first, breaking ties by id so the
// order is stable across stores.
func NewerFirst(a, b Snapshot) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(b.ID, a.ID)
}
