package order

import (
	"fmt"
	"strings"
	"time"

	"carservice/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	idPrefix    = "ORD"
	idSuffixLen = 6
	maxIDLength = 64
)

// ErrIDIsNotConstructed is returned when validating a zero-value ID.
var ErrIDIsNotConstructed = errs.NewValueIsRequiredError("order ID must be created via NewID or ParseID")

// ID is the opaque, immutable identifier of an order.
//
// Generated identifiers look like "ORD-1718701200000-3FA85F": the creation instant in
// Unix milliseconds followed by six hex digits of a random UUID, so two orders created in
// the same millisecond still differ.
type ID struct {
	value string
}

// NewID generates an identifier for an order created at now.
func NewID(now time.Time) ID {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:idSuffixLen]
	return ID{value: fmt.Sprintf("%s-%d-%s", idPrefix, now.UnixMilli(), suffix)}
}

// ParseID accepts any previously issued identifier (including legacy ones such as
// "ORD-2024-001"). Blank strings and whitespace-padded values are rejected.
func ParseID(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return ID{}, errs.NewValueIsRequiredError("order id")
	}
	if strings.TrimSpace(s) != s || len(s) > maxIDLength {
		return ID{}, errs.NewValueIsInvalidErrorWithCause("order id is invalid", fmt.Errorf("%q is not a valid order id", s))
	}
	return ID{value: s}, nil
}

// MustParseID is ParseID for identifiers known to be valid, such as fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return id.value
}

func (id ID) IsEqual(other ID) bool {
	return id.value == other.value
}

// Matches reports whether query occurs in the identifier, ignoring case.
func (id ID) Matches(query string) bool {
	return strings.Contains(strings.ToLower(id.value), strings.ToLower(query))
}

func (id ID) Validate() error {
	if id.value == "" {
		return ErrIDIsNotConstructed
	}
	return nil
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
