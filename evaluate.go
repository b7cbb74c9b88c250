package featureflow

import "strings"

// Well-known variants.
const (
	VariantOn  = "on"
	VariantOff = "off"
)

// Evaluate is the result of resolving a feature for the current user
// context. Variants are normalised to lower case.
type Evaluate struct {
	value string
}

func newEvaluate(variant string) Evaluate {
	return Evaluate{value: strings.ToLower(variant)}
}

// Value returns the resolved variant.
func (e Evaluate) Value() string {
	return e.value
}

// Is reports whether the resolved variant equals v, case-insensitively.
func (e Evaluate) Is(v string) bool {
	return strings.ToLower(v) == e.value
}

// IsOn reports whether the resolved variant is "on".
func (e Evaluate) IsOn() bool {
	return e.value == VariantOn
}

// IsOff reports whether the resolved variant is "off".
func (e Evaluate) IsOff() bool {
	return e.value == VariantOff
}
