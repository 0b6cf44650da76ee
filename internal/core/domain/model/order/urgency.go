package order

import (
	"fmt"
	"strings"

	"carservice/internal/pkg/errs"
)

// Urgency is the customer-declared priority of a request. It is fixed at creation.
type Urgency int

const (
	UrgencyUnknown Urgency = iota
	UrgencyLow
	UrgencyMedium
	UrgencyHigh
)

func getUrgencyStrings() map[Urgency]string {
	return map[Urgency]string{
		UrgencyUnknown: "unknown",
		UrgencyLow:     "low",
		UrgencyMedium:  "medium",
		UrgencyHigh:    "high",
	}
}

// AllUrgencies returns the valid urgencies from lowest to highest.
func AllUrgencies() []Urgency {
	return []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}
}

// ParseUrgency converts "low", "medium" or "high" (any case) into an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if needle == "" {
		return UrgencyUnknown, errs.NewValueIsRequiredError("urgency")
	}
	for _, u := range AllUrgencies() {
		if u.String() == needle {
			return u, nil
		}
	}
	return UrgencyUnknown, errs.NewValueIsInvalidErrorWithCause("urgency is invalid", fmt.Errorf("%q is not a known urgency", s))
}

func (u Urgency) Validate() error {
	if u < UrgencyLow || u > UrgencyHigh {
		return errs.NewValueIsRequiredErrorWithCause("urgency", fmt.Errorf("%d is not a valid urgency", u))
	}
	return nil
}

func (u Urgency) String() string {
	if str, ok := getUrgencyStrings()[u]; ok {
		return str
	}
	return "unknown"
}

func (u Urgency) MarshalText() ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return []byte(u.String()), nil
}

func (u *Urgency) UnmarshalText(text []byte) error {
	parsed, err := ParseUrgency(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
