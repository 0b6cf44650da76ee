package order

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"carservice/internal/pkg/errs"
)

const maxServiceTypeLength = 100

// knownServiceTypes is the catalogue offered by the request form.
var knownServiceTypes = []string{
	"Engine Problems",
	"Brake Issues",
	"Tire Replacement",
	"Battery Problems",
	"Electrical Issues",
	"Transmission Problems",
	"Oil Change",
	"General Inspection",
	"Accident Damage",
	"Overheating",
}

// KnownServiceTypes returns a copy of the catalogue of repair categories.
func KnownServiceTypes() []string {
	out := make([]string, len(knownServiceTypes))
	copy(out, knownServiceTypes)
	return out
}

// ServiceType is the repair category of an order. The set is open: values outside the
// catalogue are accepted as free text, and IsKnown tells them apart.
type ServiceType struct {
	value string
}

// NewServiceType trims s and canonicalises catalogue entries to their listed spelling.
func NewServiceType(s string) (ServiceType, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ServiceType{}, errs.NewValueIsRequiredError("service_type")
	}
	if n := utf8.RuneCountInString(trimmed); n > maxServiceTypeLength {
		return ServiceType{}, errs.NewValueIsOutOfRangeErrorWithCause(
			"service_type length", n, 1, maxServiceTypeLength,
			fmt.Errorf("service type is too long"),
		)
	}
	for _, known := range knownServiceTypes {
		if strings.EqualFold(known, trimmed) {
			return ServiceType{value: known}, nil
		}
	}
	return ServiceType{value: trimmed}, nil
}

func (t ServiceType) String() string {
	return t.value
}

// IsKnown reports whether the value is one of KnownServiceTypes.
func (t ServiceType) IsKnown() bool {
	for _, known := range knownServiceTypes {
		if known == t.value {
			return true
		}
	}
	return false
}

func (t ServiceType) Validate() error {
	if t.value == "" {
		return errs.NewValueIsRequiredError("service_type")
	}
	return nil
}
