package enums

import "fmt"

// CompensationKind identifies the flow that produced an audit record.
type CompensationKind string

const (
	CompensationKindCancellation CompensationKind = "cancellation"
	CompensationKindRefund       CompensationKind = "refund"
)

var validCompensationKinds = []CompensationKind{
	CompensationKindCancellation,
	CompensationKindRefund,
}

// String implements fmt.Stringer.
func (c CompensationKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CompensationKind.
func (c CompensationKind) IsValid() bool {
	for _, candidate := range validCompensationKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCompensationKind converts raw input into a CompensationKind.
func ParseCompensationKind(value string) (CompensationKind, error) {
	for _, candidate := range validCompensationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid compensation kind %q", value)
}
