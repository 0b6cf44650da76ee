package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"carservice/internal/core/application/usecases/queries"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/generated/servers"

	"github.com/labstack/echo/v4"
)

const orderEvent = "order"

// StreamOrderEvents handles GET /api/v1/orders/{id}/events.
//
// The stream opens with the current state of the order, then sends one "order" event
// per committed change. Changes are never sent out of version order, and the stream
// ends after a completed or cancelled order has been sent.
func (s *Server) StreamOrderEvents(ctx echo.Context, id servers.OrderID) error {
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return badRequest(ctx, "Invalid order id: "+err.Error())
	}

	done := make(chan struct{})
	defer close(done)

	// Subscribing before the first read means no change can fall between the two.
	updates := make(chan order.Snapshot)
	sub := s.hub.Subscribe(query.ID().String(), func(snapshot order.Snapshot) {
		select {
		case updates <- snapshot:
		case <-done:
		}
	})
	defer sub.Cancel()

	reqCtx := ctx.Request().Context()
	view, err := s.handlers.GetOrder.Handle(reqCtx, query)
	if err != nil {
		return s.respondError(ctx, err, "Failed to retrieve order")
	}

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, view); err != nil {
		return nil
	}
	if view.Status.IsTerminal() {
		return nil
	}
	sent := view.Version

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case <-sub.Done():
			// Hub closed during shutdown.
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case snapshot := <-updates:
			if snapshot.Version <= sent {
				continue
			}
			if err := writeEvent(w, queries.NewOrderView(snapshot, s.estimator)); err != nil {
				s.logger.DebugContext(reqCtx, "event stream write failed", "order_id", id, "error", err)
				return nil
			}
			sent = snapshot.Version
			if snapshot.Status.IsTerminal() {
				return nil
			}
		}
	}
}

func writeEvent(w *echo.Response, view queries.OrderView) error {
	data, err := json.Marshal(toOrder(view))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", orderEvent, view.Version, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
