package dynamo

import (
	"fmt"
	"strings"
	"time"

	"carservice/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

const (
	attrID        = "id"
	attrVersion   = "version"
	attrStatus    = "status"
	attrCreatedAt = "created_at"
	attrUserID    = "user_id"
	attrSearchKey = "search_key"

	// timeLayout is fixed width so lexical order equals chronological order.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

type orderItem struct {
	ID                  string `dynamodbav:"id"`
	SearchKey           string `dynamodbav:"search_key"`
	ServiceType         string `dynamodbav:"service_type"`
	Status              string `dynamodbav:"status"`
	MechanicName        string `dynamodbav:"mechanic_name,omitempty"`
	MechanicPhone       string `dynamodbav:"mechanic_phone,omitempty"`
	MechanicLocation    string `dynamodbav:"mechanic_location,omitempty"`
	EstimatedArrival    string `dynamodbav:"estimated_arrival,omitempty"`
	EstimatedCompletion string `dynamodbav:"estimated_completion,omitempty"`
	TotalCost           string `dynamodbav:"total_cost,omitempty"`
	CreatedAt           string `dynamodbav:"created_at"`
	UpdatedAt           string `dynamodbav:"updated_at"`
	CarMake             string `dynamodbav:"car_make,omitempty"`
	CarModel            string `dynamodbav:"car_model,omitempty"`
	CarYear             int    `dynamodbav:"car_year,omitempty"`
	Description         string `dynamodbav:"description"`
	Urgency             string `dynamodbav:"urgency"`
	Location            string `dynamodbav:"location,omitempty"`
	UserID              string `dynamodbav:"user_id,omitempty"`
	Version             int64  `dynamodbav:"version"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTimePtr(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", field, err)
	}
	return &t, nil
}

func fromSnapshot(s order.Snapshot) orderItem {
	var cost string
	if s.TotalCost != nil {
		cost = s.TotalCost.String()
	}

	return orderItem{
		ID:                  s.ID,
		SearchKey:           strings.ToLower(s.ID),
		ServiceType:         s.ServiceType,
		Status:              s.Status.String(),
		MechanicName:        s.MechanicName,
		MechanicPhone:       s.MechanicPhone,
		MechanicLocation:    s.MechanicLocation,
		EstimatedArrival:    formatTimePtr(s.EstimatedArrival),
		EstimatedCompletion: formatTimePtr(s.EstimatedCompletion),
		TotalCost:           cost,
		CreatedAt:           formatTime(s.CreatedAt),
		UpdatedAt:           formatTime(s.UpdatedAt),
		CarMake:             s.CarMake,
		CarModel:            s.CarModel,
		CarYear:             s.CarYear,
		Description:         s.Description,
		Urgency:             s.Urgency.String(),
		Location:            s.Location,
		UserID:              s.UserID,
		Version:             s.Version,
	}
}

func toSnapshot(it orderItem) (order.Snapshot, error) {
	status, err := order.ParseStatus(it.Status)
	if err != nil {
		return order.Snapshot{}, err
	}
	urgency, err := order.ParseUrgency(it.Urgency)
	if err != nil {
		return order.Snapshot{}, err
	}

	createdAt, err := time.Parse(timeLayout, it.CreatedAt)
	if err != nil {
		return order.Snapshot{}, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(timeLayout, it.UpdatedAt)
	if err != nil {
		return order.Snapshot{}, fmt.Errorf("parse updated_at: %w", err)
	}
	arrival, err := parseTimePtr("estimated_arrival", it.EstimatedArrival)
	if err != nil {
		return order.Snapshot{}, err
	}
	completion, err := parseTimePtr("estimated_completion", it.EstimatedCompletion)
	if err != nil {
		return order.Snapshot{}, err
	}

	var cost *decimal.Decimal
	if it.TotalCost != "" {
		d, parseErr := decimal.NewFromString(it.TotalCost)
		if parseErr != nil {
			return order.Snapshot{}, fmt.Errorf("parse total_cost: %w", parseErr)
		}
		cost = &d
	}

	return order.Snapshot{
		ID:                  it.ID,
		ServiceType:         it.ServiceType,
		Status:              status,
		MechanicName:        it.MechanicName,
		MechanicPhone:       it.MechanicPhone,
		MechanicLocation:    it.MechanicLocation,
		EstimatedArrival:    arrival,
		EstimatedCompletion: completion,
		TotalCost:           cost,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
		CarMake:             it.CarMake,
		CarModel:            it.CarModel,
		CarYear:             it.CarYear,
		Description:         it.Description,
		Urgency:             urgency,
		Location:            it.Location,
		UserID:              it.UserID,
		Version:             it.Version,
	}, nil
}
