package featureflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/featureflow/featureflow-go/pkg/condition"
)

// User is the targeting context features are evaluated against. An empty ID
// makes the client fall back to its persisted anonymous identity.
type User struct {
	ID         string                    `json:"id"`
	Attributes map[string]AttributeValue `json:"attributes,omitempty"`
}

type attrKind int

const (
	attrString attrKind = iota
	attrNumber
	attrTime
	attrStrings
	attrNumbers
	attrTimes
)

// AttributeValue is a closed variant holding one user attribute: a string,
// a number, a point in time, or a list of one of those. The closed set lets
// the rule matcher handle every attribute shape exhaustively instead of
// relying on runtime type tests.
type AttributeValue struct {
	kind  attrKind
	str   string
	num   float64
	t     time.Time
	strs  []string
	nums  []float64
	times []time.Time
}

// StringAttr wraps a string attribute.
func StringAttr(s string) AttributeValue {
	return AttributeValue{kind: attrString, str: s}
}

// NumberAttr wraps a numeric attribute.
func NumberAttr(n float64) AttributeValue {
	return AttributeValue{kind: attrNumber, num: n}
}

// TimeAttr wraps a time attribute.
func TimeAttr(t time.Time) AttributeValue {
	return AttributeValue{kind: attrTime, t: t}
}

// StringListAttr wraps a list of string attributes.
func StringListAttr(values ...string) AttributeValue {
	return AttributeValue{kind: attrStrings, strs: values}
}

// NumberListAttr wraps a list of numeric attributes.
func NumberListAttr(values ...float64) AttributeValue {
	return AttributeValue{kind: attrNumbers, nums: values}
}

// TimeListAttr wraps a list of time attributes.
func TimeListAttr(values ...time.Time) AttributeValue {
	return AttributeValue{kind: attrTimes, times: values}
}

// scalars expands the attribute into the condition values it binds. A
// condition passes when any bound scalar satisfies it.
func (v AttributeValue) scalars() []condition.Value {
	switch v.kind {
	case attrString:
		return []condition.Value{condition.StringValue(v.str)}
	case attrNumber:
		return []condition.Value{condition.NumberValue(v.num)}
	case attrTime:
		return []condition.Value{condition.TimeValue(v.t)}
	case attrStrings:
		out := make([]condition.Value, len(v.strs))
		for i, s := range v.strs {
			out[i] = condition.StringValue(s)
		}
		return out
	case attrNumbers:
		out := make([]condition.Value, len(v.nums))
		for i, n := range v.nums {
			out[i] = condition.NumberValue(n)
		}
		return out
	default:
		out := make([]condition.Value, len(v.times))
		for i, t := range v.times {
			out[i] = condition.TimeValue(t)
		}
		return out
	}
}

// MarshalJSON encodes the attribute as its natural JSON shape: strings and
// numbers as scalars, times as RFC 3339 strings, lists as arrays.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case attrString:
		return json.Marshal(v.str)
	case attrNumber:
		return json.Marshal(v.num)
	case attrTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	case attrStrings:
		return json.Marshal(v.strs)
	case attrNumbers:
		return json.Marshal(v.nums)
	default:
		formatted := make([]string, len(v.times))
		for i, t := range v.times {
			formatted[i] = t.Format(time.RFC3339)
		}
		return json.Marshal(formatted)
	}
}

// UnmarshalJSON decodes a JSON scalar or homogeneous array into the
// attribute. Strings parseable as RFC 3339 timestamps decode as times.
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch value := raw.(type) {
	case string:
		*v = scalarFromString(value)
		return nil
	case float64:
		*v = NumberAttr(value)
		return nil
	case []any:
		return v.unmarshalList(value)
	default:
		return fmt.Errorf("featureflow: unsupported attribute value %T", raw)
	}
}

func (v *AttributeValue) unmarshalList(items []any) error {
	if len(items) == 0 {
		*v = StringListAttr()
		return nil
	}

	switch items[0].(type) {
	case string:
		if _, err := time.Parse(time.RFC3339, items[0].(string)); err == nil {
			times := make([]time.Time, len(items))
			for i, item := range items {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("featureflow: mixed attribute list")
				}
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return fmt.Errorf("featureflow: mixed attribute list")
				}
				times[i] = t
			}
			*v = TimeListAttr(times...)
			return nil
		}
		strs := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("featureflow: mixed attribute list")
			}
			strs[i] = s
		}
		*v = StringListAttr(strs...)
		return nil
	case float64:
		nums := make([]float64, len(items))
		for i, item := range items {
			n, ok := item.(float64)
			if !ok {
				return fmt.Errorf("featureflow: mixed attribute list")
			}
			nums[i] = n
		}
		*v = NumberListAttr(nums...)
		return nil
	default:
		return fmt.Errorf("featureflow: unsupported attribute list element %T", items[0])
	}
}

func scalarFromString(s string) AttributeValue {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return TimeAttr(t)
	}
	return StringAttr(s)
}
