package queries

import (
	"context"

	"carservice/internal/core/domain/services"
	"carservice/internal/core/ports"
)

// GetOrderQueryHandler reads a single order.
//
// Example:
//
//	handler := NewGetOrderQueryHandler(reader, services.NewTimeEstimator(kernel.SystemClock{}))
//	query, _ := NewGetOrderQuery("ORD-2024-001")
//
//	view, err := handler.Handle(ctx, query)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // unknown id
//	}
//	fmt.Println(view.Status, view.ArrivalETA)
type GetOrderQueryHandler struct {
	reader    ports.OrderReader
	estimator services.TimeEstimator
}

func NewGetOrderQueryHandler(reader ports.OrderReader, estimator services.TimeEstimator) GetOrderQueryHandler {
	return GetOrderQueryHandler{reader: reader, estimator: estimator}
}

// Handle returns *errs.ObjectNotFoundError for unknown ids.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	snapshot, err := h.reader.GetSnapshot(ctx, query.ID())
	if err != nil {
		return OrderView{}, err
	}
	return NewOrderView(snapshot, h.estimator), nil
}
