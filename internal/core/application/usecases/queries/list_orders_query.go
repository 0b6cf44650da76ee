package queries

import (
	"errors"
	"strings"

	"carservice/internal/pkg/guard"
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery lists orders newest first, optionally only those of one customer.
type ListOrdersQuery struct {
	userID string

	guard guard.ConstructorGuard
}

// NewListOrdersQuery creates the query. A blank userID lists every order.
func NewListOrdersQuery(userID string) ListOrdersQuery {
	return ListOrdersQuery{userID: strings.TrimSpace(userID), guard: guard.NewConstructorGuard()}
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) UserID() string {
	return q.userID
}
