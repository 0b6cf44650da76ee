package queries

import (
	"errors"
	"strings"

	"carservice/internal/pkg/guard"
)

var ErrSearchOrdersQueryIsNotConstructed = errors.New(
	"SearchOrdersQuery must be created via NewSearchOrdersQuery constructor",
)

// SearchOrdersQuery finds orders whose id contains a substring, ignoring case.
// It is not scoped to a customer.
type SearchOrdersQuery struct {
	text string

	guard guard.ConstructorGuard
}

// NewSearchOrdersQuery creates the query. Surrounding whitespace is ignored and a blank
// text matches every order.
func NewSearchOrdersQuery(text string) SearchOrdersQuery {
	return SearchOrdersQuery{text: strings.TrimSpace(text), guard: guard.NewConstructorGuard()}
}

func (q SearchOrdersQuery) Validate() error {
	return q.guard.Validate(ErrSearchOrdersQueryIsNotConstructed)
}

func (q SearchOrdersQuery) Text() string {
	return q.text
}
