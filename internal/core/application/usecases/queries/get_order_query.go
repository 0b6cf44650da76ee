package queries

import (
	"errors"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves one order by id.
type GetOrderQuery struct {
	id order.ID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(id string) (GetOrderQuery, error) {
	parsed, err := order.ParseID(id)
	if err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{id: parsed, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) ID() order.ID {
	return q.id
}
