// Package servers provides primitives to interact with the openapi HTTP API.
//
// The types and the echo wiring follow api/openapi.yml operation by operation.
package servers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"
)

// Defines values for OrderStatus.
const (
	OrderStatusAccepted   OrderStatus = "accepted"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusPending    OrderStatus = "pending"
)

// Defines values for Urgency.
const (
	UrgencyHigh   Urgency = "high"
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
)

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Mechanic defines model for Mechanic.
type Mechanic struct {
	Location *string `json:"location,omitempty"`
	Name     string  `json:"name" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// NewOrder defines model for NewOrder.
type NewOrder struct {
	CarMake     *string   `json:"car_make,omitempty"`
	CarModel    *string   `json:"car_model,omitempty"`
	CarYear     *int      `json:"car_year,omitempty" validate:"omitempty,min=1886,max=2100"`
	Description string    `json:"description" validate:"required,max=2000"`
	Location    *string   `json:"location,omitempty"`
	Mechanic    *Mechanic `json:"mechanic,omitempty"`
	ServiceType string    `json:"service_type" validate:"required,max=100"`
	Urgency     Urgency   `json:"urgency"`
	UserId      *string   `json:"user_id,omitempty"`
}

// Order defines model for Order.
type Order struct {
	// ArrivalEta Countdown to estimated_arrival ("TBD", "Now", "10 min", "1h 30m").
	ArrivalEta string  `json:"arrival_eta"`
	CarMake    *string `json:"car_make,omitempty"`
	CarModel   *string `json:"car_model,omitempty"`
	CarYear    *int    `json:"car_year,omitempty"`

	// CompletionEta Countdown to estimated_completion in the same format.
	CompletionEta       string      `json:"completion_eta"`
	CreatedAt           time.Time   `json:"created_at"`
	Description         string      `json:"description"`
	EstimatedArrival    *time.Time  `json:"estimated_arrival,omitempty"`
	EstimatedCompletion *time.Time  `json:"estimated_completion,omitempty"`
	Id                  string      `json:"id"`
	Location            *string     `json:"location,omitempty"`
	MechanicLocation    *string     `json:"mechanic_location,omitempty"`
	MechanicName        *string     `json:"mechanic_name,omitempty"`
	MechanicPhone       *string     `json:"mechanic_phone,omitempty"`
	ServiceType         string      `json:"service_type"`
	Status              OrderStatus `json:"status"`

	// TotalCost Final price, present once the order is completed. Digits are kept
	// exactly as stored.
	TotalCost *json.Number `json:"total_cost,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
	Urgency   Urgency      `json:"urgency"`
	UserId    *string      `json:"user_id,omitempty"`
	Version   int64        `json:"version"`
}

// OrderStatus defines model for OrderStatus.
type OrderStatus string

// StatusChange defines model for StatusChange.
type StatusChange struct {
	EstimatedArrival    *time.Time       `json:"estimated_arrival,omitempty"`
	EstimatedCompletion *time.Time       `json:"estimated_completion,omitempty"`
	Mechanic            *Mechanic        `json:"mechanic,omitempty"`
	Status              OrderStatus      `json:"status"`
	TotalCost           *decimal.Decimal `json:"total_cost,omitempty"`
}

// Urgency defines model for Urgency.
type Urgency string

// OrderID defines model for OrderID.
type OrderID = string

// ListOrdersParams defines parameters for ListOrders.
type ListOrdersParams struct {
	// UserId Only return orders submitted by this customer.
	UserId *string `form:"user_id,omitempty" json:"user_id,omitempty"`
}

// SearchOrdersParams defines parameters for SearchOrders.
type SearchOrdersParams struct {
	Q *string `form:"q,omitempty" json:"q,omitempty"`
}

// CreateOrderJSONRequestBody defines body for CreateOrder for application/json ContentType.
type CreateOrderJSONRequestBody = NewOrder

// ChangeOrderStatusJSONRequestBody defines body for ChangeOrderStatus for application/json ContentType.
type ChangeOrderStatusJSONRequestBody = StatusChange

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// List orders, newest first
	// (GET /api/v1/orders)
	ListOrders(ctx echo.Context, params ListOrdersParams) error
	// Submit a service request
	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error
	// Find orders whose id contains a text, ignoring case
	// (GET /api/v1/orders/search)
	SearchOrders(ctx echo.Context, params SearchOrdersParams) error
	// Get one order
	// (GET /api/v1/orders/{id})
	GetOrder(ctx echo.Context, id OrderID) error
	// Follow an order with Server-Sent Events
	// (GET /api/v1/orders/{id}/events)
	StreamOrderEvents(ctx echo.Context, id OrderID) error
	// Move an order along its lifecycle
	// (PATCH /api/v1/orders/{id}/status)
	ChangeOrderStatus(ctx echo.Context, id OrderID) error
	// Catalogue of service categories offered on the request form
	// (GET /api/v1/service-types)
	ListServiceTypes(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// ListOrders converts echo context to params.
func (w *ServerInterfaceWrapper) ListOrders(ctx echo.Context) error {
	var err error

	// Parameter object where we will unmarshal all parameters from the context
	var params ListOrdersParams
	// ------------- Optional query parameter "user_id" -------------

	err = runtime.BindQueryParameter("form", true, false, "user_id", ctx.QueryParams(), &params.UserId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter user_id: %s", err))
	}

	err = w.Handler.ListOrders(ctx, params)
	return err
}

// CreateOrder converts echo context to params.
func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	return w.Handler.CreateOrder(ctx)
}

// SearchOrders converts echo context to params.
func (w *ServerInterfaceWrapper) SearchOrders(ctx echo.Context) error {
	var err error

	var params SearchOrdersParams
	// ------------- Optional query parameter "q" -------------

	err = runtime.BindQueryParameter("form", true, false, "q", ctx.QueryParams(), &params.Q)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter q: %s", err))
	}

	err = w.Handler.SearchOrders(ctx, params)
	return err
}

// GetOrder converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrder(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetOrder(ctx, id)
}

// StreamOrderEvents converts echo context to params.
func (w *ServerInterfaceWrapper) StreamOrderEvents(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.StreamOrderEvents(ctx, id)
}

// ChangeOrderStatus converts echo context to params.
func (w *ServerInterfaceWrapper) ChangeOrderStatus(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ChangeOrderStatus(ctx, id)
}

// ListServiceTypes converts echo context to params.
func (w *ServerInterfaceWrapper) ListServiceTypes(ctx echo.Context) error {
	return w.Handler.ListServiceTypes(ctx)
}

func bindOrderID(ctx echo.Context) (OrderID, error) {
	// ------------- Path parameter "id" -------------
	var id OrderID

	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	return id, nil
}

// EchoRouter is a simple interface which specifies echo.Route addition functions which
// are present on both echo.Echo and echo.Group, since we want to allow using
// either of them for path registration
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, and prepends BaseURL to the paths,
// so that the paths can be served under a prefix.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.GET(baseURL+"/api/v1/orders", wrapper.ListOrders)
	router.POST(baseURL+"/api/v1/orders", wrapper.CreateOrder)
	router.GET(baseURL+"/api/v1/orders/search", wrapper.SearchOrders)
	router.GET(baseURL+"/api/v1/orders/:id", wrapper.GetOrder)
	router.GET(baseURL+"/api/v1/orders/:id/events", wrapper.StreamOrderEvents)
	router.PATCH(baseURL+"/api/v1/orders/:id/status", wrapper.ChangeOrderStatus)
	router.GET(baseURL+"/api/v1/service-types", wrapper.ListServiceTypes)
}
