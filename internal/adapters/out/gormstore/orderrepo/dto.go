// Package orderrepo maps order aggregates onto a relational table through GORM.
// The same mapping serves PostgreSQL and SQLite.
package orderrepo

import (
	"time"

	"carservice/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Timestamps are written explicitly by the aggregate, never by GORM hooks.
type OrderDTO struct {
	ID                  string `gorm:"primaryKey;size:64"`
	ServiceType         string `gorm:"size:100;not null"`
	Status              int    `gorm:"not null;index:idx_orders_status_created,priority:1"`
	MechanicName        string `gorm:"size:200"`
	MechanicPhone       string `gorm:"size:50"`
	MechanicLocation    string `gorm:"size:200"`
	EstimatedArrival    *time.Time
	EstimatedCompletion *time.Time
	TotalCost           decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	CreatedAt           time.Time           `gorm:"not null;autoCreateTime:false;index:idx_orders_status_created,priority:2"`
	UpdatedAt           time.Time           `gorm:"not null;autoUpdateTime:false"`
	CarMake             string              `gorm:"size:100"`
	CarModel            string              `gorm:"size:100"`
	CarYear             int
	Description         string `gorm:"type:text;not null"`
	Urgency             int    `gorm:"not null"`
	Location            string `gorm:"size:200"`
	UserID              string `gorm:"size:100;index"`
	Version             int64  `gorm:"not null"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

func fromSnapshot(s order.Snapshot) OrderDTO {
	var cost decimal.NullDecimal
	if s.TotalCost != nil {
		cost = decimal.NewNullDecimal(*s.TotalCost)
	}

	return OrderDTO{
		ID:                  s.ID,
		ServiceType:         s.ServiceType,
		Status:              int(s.Status),
		MechanicName:        s.MechanicName,
		MechanicPhone:       s.MechanicPhone,
		MechanicLocation:    s.MechanicLocation,
		EstimatedArrival:    s.EstimatedArrival,
		EstimatedCompletion: s.EstimatedCompletion,
		TotalCost:           cost,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		CarMake:             s.CarMake,
		CarModel:            s.CarModel,
		CarYear:             s.CarYear,
		Description:         s.Description,
		Urgency:             int(s.Urgency),
		Location:            s.Location,
		UserID:              s.UserID,
		Version:             s.Version,
	}
}

func toSnapshot(dto OrderDTO) order.Snapshot {
	var cost *decimal.Decimal
	if dto.TotalCost.Valid {
		c := dto.TotalCost.Decimal
		cost = &c
	}

	return order.Snapshot{
		ID:                  dto.ID,
		ServiceType:         dto.ServiceType,
		Status:              order.Status(dto.Status),
		MechanicName:        dto.MechanicName,
		MechanicPhone:       dto.MechanicPhone,
		MechanicLocation:    dto.MechanicLocation,
		EstimatedArrival:    utcPtr(dto.EstimatedArrival),
		EstimatedCompletion: utcPtr(dto.EstimatedCompletion),
		TotalCost:           cost,
		CreatedAt:           dto.CreatedAt.UTC(),
		UpdatedAt:           dto.UpdatedAt.UTC(),
		CarMake:             dto.CarMake,
		CarModel:            dto.CarModel,
		CarYear:             dto.CarYear,
		Description:         dto.Description,
		Urgency:             order.Urgency(dto.Urgency),
		Location:            dto.Location,
		UserID:              dto.UserID,
		Version:             dto.Version,
	}
}

// toDomain reconstructs the aggregate, re-validating every stored invariant.
func toDomain(dto OrderDTO) (*order.Order, error) {
	return order.RestoreOrder(toSnapshot(dto))
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
