package queries

import (
	"context"

	"carservice/internal/core/domain/services"
	"carservice/internal/core/ports"
)

type SearchOrdersQueryHandler struct {
	reader    ports.OrderReader
	estimator services.TimeEstimator
}

func NewSearchOrdersQueryHandler(reader ports.OrderReader, estimator services.TimeEstimator) SearchOrdersQueryHandler {
	return SearchOrdersQueryHandler{reader: reader, estimator: estimator}
}

// Handle returns matches newest first; no match yields an empty slice and no error.
func (h SearchOrdersQueryHandler) Handle(ctx context.Context, query SearchOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	snapshots, err := h.reader.SearchSnapshots(ctx, query.Text())
	if err != nil {
		return nil, err
	}
	return newOrderViews(snapshots, h.estimator), nil
}
