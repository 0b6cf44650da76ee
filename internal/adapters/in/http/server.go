package http

import (
	"log/slog"
	"net/http"
	"time"

	"carservice/internal/core/application/notifications"
	"carservice/internal/core/application/usecases/commands"
	"carservice/internal/core/application/usecases/queries"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/domain/services"
	"carservice/internal/generated/servers"

	"github.com/labstack/echo/v4"
)

// DefaultHeartbeatInterval is how often an idle event stream sends a keep-alive comment.
const DefaultHeartbeatInterval = 15 * time.Second

var _ servers.ServerInterface = (*Server)(nil)

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	CreateOrder       commands.CreateOrderCommandHandler
	ChangeOrderStatus commands.ChangeOrderStatusCommandHandler

	GetOrder     queries.GetOrderQueryHandler
	ListOrders   queries.ListOrdersQueryHandler
	SearchOrders queries.SearchOrdersQueryHandler
}

// Server implements the ServerInterface for handling HTTP requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	handlers  Handlers
	hub       *notifications.Hub
	estimator services.TimeEstimator
	logger    *slog.Logger

	heartbeat time.Duration
}

// NewServer creates a new HTTP server. Event streams subscribe to hub; estimator
// renders the countdowns of orders pushed over them.
func NewServer(
	handlers Handlers,
	hub *notifications.Hub,
	estimator services.TimeEstimator,
	logger *slog.Logger,
) *Server {
	return &Server{
		handlers:  handlers,
		hub:       hub,
		estimator: estimator,
		logger:    logger,
		heartbeat: DefaultHeartbeatInterval,
	}
}

// WithHeartbeat overrides the keep-alive interval of event streams.
func (s *Server) WithHeartbeat(d time.Duration) *Server {
	if d > 0 {
		s.heartbeat = d
	}
	return s
}

// ListOrders handles GET /api/v1/orders - all orders or one customer's, newest first.
func (s *Server) ListOrders(ctx echo.Context, params servers.ListOrdersParams) error {
	query := queries.NewListOrdersQuery(deref(params.UserId))

	views, err := s.handlers.ListOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.respondError(ctx, err, "Failed to retrieve orders")
	}
	return ctx.JSON(http.StatusOK, toOrders(views))
}

// CreateOrder handles POST /api/v1/orders - submits a new service request.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body servers.CreateOrderJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := ctx.Validate(&body); err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	cmd, err := commands.NewCreateOrderCommand(toCreateOrderInput(body))
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	snapshot, err := s.handlers.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.respondError(ctx, err, "Failed to create order")
	}
	return ctx.JSON(http.StatusCreated, toOrder(queries.NewOrderView(snapshot, s.estimator)))
}

// SearchOrders handles GET /api/v1/orders/search - case-insensitive id lookup.
func (s *Server) SearchOrders(ctx echo.Context, params servers.SearchOrdersParams) error {
	query := queries.NewSearchOrdersQuery(deref(params.Q))

	views, err := s.handlers.SearchOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.respondError(ctx, err, "Failed to search orders")
	}
	return ctx.JSON(http.StatusOK, toOrders(views))
}

// GetOrder handles GET /api/v1/orders/{id}.
func (s *Server) GetOrder(ctx echo.Context, id servers.OrderID) error {
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return badRequest(ctx, "Invalid order id: "+err.Error())
	}

	view, err := s.handlers.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.respondError(ctx, err, "Failed to retrieve order")
	}
	return ctx.JSON(http.StatusOK, toOrder(view))
}

// ChangeOrderStatus handles PATCH /api/v1/orders/{id}/status.
func (s *Server) ChangeOrderStatus(ctx echo.Context, id servers.OrderID) error {
	var body servers.ChangeOrderStatusJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if err := ctx.Validate(&body); err != nil {
		return badRequest(ctx, "Invalid status change: "+err.Error())
	}

	cmd, err := commands.NewChangeOrderStatusCommand(toChangeOrderStatusInput(id, body))
	if err != nil {
		return badRequest(ctx, "Invalid status change: "+err.Error())
	}

	snapshot, err := s.handlers.ChangeOrderStatus.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.respondError(ctx, err, "Failed to change order status")
	}
	return ctx.JSON(http.StatusOK, toOrder(queries.NewOrderView(snapshot, s.estimator)))
}

// ListServiceTypes handles GET /api/v1/service-types.
func (s *Server) ListServiceTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, order.KnownServiceTypes())
}
