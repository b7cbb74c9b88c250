package featureflow

import (
	"encoding/json"
	"fmt"

	"github.com/featureflow/featureflow-go/pkg/condition"
)

// Feature is a flag definition as received from the service: either a
// static variant assignment (a bare JSON string) or an ordered rule list.
// Features are immutable for the lifetime of a feature set.
type Feature struct {
	// Variant is the static assignment when Rules is nil.
	Variant string

	// Rules are evaluated in order; the first matching rule wins.
	Rules []Rule
}

// Features maps feature keys to their definitions.
type Features map[string]Feature

// EvaluatedFeatures maps feature keys to their resolved variants,
// lowercased.
type EvaluatedFeatures map[string]string

// Rule pairs an optional audience with the variant it assigns. A rule
// without an audience matches unconditionally.
type Rule struct {
	Audience *Audience `json:"audience,omitempty"`
	Variant  string    `json:"variant"`
}

// Audience is a conjunction of conditions gating a rule.
type Audience struct {
	Conditions []Condition `json:"conditions"`
}

// Condition compares one context attribute against a list of target values.
type Condition struct {
	Target   string              `json:"target"`
	Operator condition.Operator  `json:"operator"`
	Values   []condition.Operand `json:"values"`
}

// UnmarshalJSON accepts either a bare variant string or a structured
// definition with rules.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var variant string
	if err := json.Unmarshal(data, &variant); err == nil {
		*f = Feature{Variant: variant}
		return nil
	}

	var structured struct {
		Rules []Rule `json:"rules"`
	}
	if err := json.Unmarshal(data, &structured); err != nil {
		return fmt.Errorf("featureflow: decode feature: %w", err)
	}
	if structured.Rules == nil {
		structured.Rules = []Rule{}
	}
	*f = Feature{Rules: structured.Rules}
	return nil
}

// MarshalJSON writes the wire form the service uses: a bare string for
// static assignments, an object with rules otherwise.
func (f Feature) MarshalJSON() ([]byte, error) {
	if f.Rules == nil {
		return json.Marshal(f.Variant)
	}
	return json.Marshal(struct {
		Rules []Rule `json:"rules"`
	}{Rules: f.Rules})
}

// static reports whether the feature is a plain variant assignment.
func (f Feature) static() bool {
	return f.Rules == nil
}

// staticFeatures lifts a map of default variant assignments into a feature
// set.
func staticFeatures(defaults map[string]string) Features {
	out := make(Features, len(defaults))
	for key, variant := range defaults {
		out[key] = Feature{Variant: variant}
	}
	return out
}
