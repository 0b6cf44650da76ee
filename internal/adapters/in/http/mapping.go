package http

import (
	"encoding/json"

	"carservice/internal/core/application/usecases/commands"
	"carservice/internal/core/application/usecases/queries"
	"carservice/internal/generated/servers"
)

func toCreateOrderInput(body servers.NewOrder) commands.CreateOrderInput {
	in := commands.CreateOrderInput{
		ServiceType: body.ServiceType,
		Urgency:     string(body.Urgency),
		Description: body.Description,
		CarMake:     deref(body.CarMake),
		CarModel:    deref(body.CarModel),
		Location:    deref(body.Location),
		UserID:      deref(body.UserId),
	}
	if body.CarYear != nil {
		in.CarYear = *body.CarYear
	}
	if m := body.Mechanic; m != nil {
		in.MechanicName = m.Name
		in.MechanicPhone = deref(m.Phone)
		in.MechanicLocation = deref(m.Location)
	}
	return in
}

func toChangeOrderStatusInput(id string, body servers.StatusChange) commands.ChangeOrderStatusInput {
	in := commands.ChangeOrderStatusInput{
		OrderID:             id,
		Status:              string(body.Status),
		EstimatedArrival:    body.EstimatedArrival,
		EstimatedCompletion: body.EstimatedCompletion,
		TotalCost:           body.TotalCost,
	}
	if m := body.Mechanic; m != nil {
		in.MechanicName = m.Name
		in.MechanicPhone = deref(m.Phone)
		in.MechanicLocation = deref(m.Location)
	}
	return in
}

func toOrder(v queries.OrderView) servers.Order {
	o := servers.Order{
		Id:                  v.ID,
		ServiceType:         v.ServiceType,
		Status:              servers.OrderStatus(v.Status.String()),
		Urgency:             servers.Urgency(v.Urgency.String()),
		Description:         v.Description,
		MechanicName:        ref(v.MechanicName),
		MechanicPhone:       ref(v.MechanicPhone),
		MechanicLocation:    ref(v.MechanicLocation),
		EstimatedArrival:    v.EstimatedArrival,
		EstimatedCompletion: v.EstimatedCompletion,
		CarMake:             ref(v.CarMake),
		CarModel:            ref(v.CarModel),
		Location:            ref(v.Location),
		UserId:              ref(v.UserID),
		CreatedAt:           v.CreatedAt,
		UpdatedAt:           v.UpdatedAt,
		Version:             v.Version,
		ArrivalEta:          v.ArrivalETA,
		CompletionEta:       v.CompletionETA,
	}
	if v.CarYear != 0 {
		year := v.CarYear
		o.CarYear = &year
	}
	if v.TotalCost != nil {
		cost := json.Number(v.TotalCost.String())
		o.TotalCost = &cost
	}
	return o
}

func toOrders(views []queries.OrderView) []servers.Order {
	out := make([]servers.Order, 0, len(views))
	for _, v := range views {
		out = append(out, toOrder(v))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
