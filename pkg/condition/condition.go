package condition

import (
	"encoding/json"
	"strconv"
	"time"
)

type valueKind int

const (
	kindString valueKind = iota
	kindNumber
	kindTime
)

// Value is a single context-side scalar tested against condition operands.
// It holds exactly one of a string, a number, or a point in time.
type Value struct {
	kind valueKind
	str  string
	num  float64
	t    time.Time
}

// StringValue wraps a string as a Value.
func StringValue(s string) Value {
	return Value{kind: kindString, str: s}
}

// NumberValue wraps a number as a Value.
func NumberValue(n float64) Value {
	return Value{kind: kindNumber, num: n}
}

// TimeValue wraps a point in time as a Value.
func TimeValue(t time.Time) Value {
	return Value{kind: kindTime, t: t}
}

// String returns the canonical string form used by textual operators.
// Numbers render without a trailing fraction when whole, times as RFC 3339.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindTime:
		return v.t.Format(time.RFC3339)
	default:
		return v.str
	}
}

// number returns the numeric form of the value. String values are parsed;
// time values have no numeric form.
func (v Value) number() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindString:
		n, err := strconv.ParseFloat(v.str, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// isTime reports whether the value is a point in time.
func (v Value) isTime() bool {
	return v.kind == kindTime
}

// Operand is a condition-side target value from a rule definition, either a
// string or a number as supplied by the flag service.
type Operand struct {
	str      string
	num      float64
	isNumber bool
}

// StringOperand wraps a string as an Operand.
func StringOperand(s string) Operand {
	return Operand{str: s}
}

// NumberOperand wraps a number as an Operand.
func NumberOperand(n float64) Operand {
	return Operand{num: n, isNumber: true}
}

// String returns the string form of the operand.
func (o Operand) String() string {
	if o.isNumber {
		return strconv.FormatFloat(o.num, 'f', -1, 64)
	}
	return o.str
}

// number returns the numeric form of the operand. String operands are
// parsed on demand.
func (o Operand) number() (float64, bool) {
	if o.isNumber {
		return o.num, true
	}
	n, err := strconv.ParseFloat(o.str, 64)
	return n, err == nil
}

// when interprets the operand as a point in time. Numeric operands are
// milliseconds since the Unix epoch; string operands are parsed as RFC 3339
// timestamps or bare dates.
func (o Operand) when() (time.Time, bool) {
	if o.isNumber {
		return time.UnixMilli(int64(o.num)), true
	}
	if t, err := time.Parse(time.RFC3339, o.str); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", o.str); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// UnmarshalJSON decodes a JSON string or number into the operand.
func (o *Operand) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = Operand{str: s}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*o = Operand{num: n, isNumber: true}
	return nil
}

// MarshalJSON encodes the operand back to its original JSON scalar form.
func (o Operand) MarshalJSON() ([]byte, error) {
	if o.isNumber {
		return json.Marshal(o.num)
	}
	return json.Marshal(o.str)
}
