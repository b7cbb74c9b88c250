package featureflow

import (
	"time"

	"github.com/featureflow/featureflow-go/pkg/condition"
)

// Implicit attributes bound on every context rebuild, enabling
// time-windowed rules.
const (
	attrDate      = "featureflow.date"
	attrHourOfDay = "featureflow.hourofday"
)

// evalContext binds attribute names to the scalar values a condition may
// match against.
type evalContext map[string][]condition.Value

// buildContext expands the user's attributes and overlays the time-derived
// implicit attributes. Implicit attributes always win over user-supplied
// ones of the same name.
func buildContext(attributes map[string]AttributeValue, now time.Time) evalContext {
	ctx := make(evalContext, len(attributes)+2)
	for name, value := range attributes {
		ctx[name] = value.scalars()
	}
	ctx[attrDate] = []condition.Value{condition.TimeValue(now)}
	ctx[attrHourOfDay] = []condition.Value{condition.NumberValue(float64(now.Hour()))}
	return ctx
}

// resolveVariant selects the variant a feature resolves to in ctx. Static
// features resolve to their assignment verbatim; rule-based features
// resolve to the variant of the first matching rule. The empty string means
// no rule matched, which callers map to the "off" sentinel.
func resolveVariant(f Feature, ctx evalContext) string {
	if f.static() {
		return f.Variant
	}
	for _, rule := range f.Rules {
		if ruleMatches(rule, ctx) {
			return rule.Variant
		}
	}
	return ""
}

// ruleMatches reports whether every condition of the rule's audience holds
// in ctx. A rule with no audience, or an audience with no conditions,
// matches unconditionally. A condition whose target is absent from the
// context passes vacuously rather than failing the audience; a target bound
// to an empty list is present but satisfies nothing, so it fails.
func ruleMatches(rule Rule, ctx evalContext) bool {
	if rule.Audience == nil || len(rule.Audience.Conditions) == 0 {
		return true
	}

	for _, cond := range rule.Audience.Conditions {
		values, ok := ctx[cond.Target]
		if !ok {
			continue
		}

		pass := false
		for _, value := range values {
			// A condition error (malformed regex) counts as a non-match
			// for that value.
			if matched, err := condition.Test(cond.Operator, value, cond.Values); err == nil && matched {
				pass = true
				break
			}
		}
		if !pass {
			return false
		}
	}
	return true
}
