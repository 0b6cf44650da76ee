package queries

import (
	"context"

	"carservice/internal/core/domain/services"
	"carservice/internal/core/ports"
)

type ListOrdersQueryHandler struct {
	reader    ports.OrderReader
	estimator services.TimeEstimator
}

func NewListOrdersQueryHandler(reader ports.OrderReader, estimator services.TimeEstimator) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{reader: reader, estimator: estimator}
}

// Handle returns the matching orders ordered by creation time, newest first.
// The result is empty, never nil, when nothing matches.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	snapshots, err := h.reader.ListSnapshots(ctx, ports.ListFilter{UserID: query.UserID()})
	if err != nil {
		return nil, err
	}
	return newOrderViews(snapshots, h.estimator), nil
}
