package condition

import (
	"regexp"
	"strings"
)

// Operator names the comparison applied between a context value and the
// condition's target operands.
type Operator string

const (
	Equals             Operator = "equals"
	NotEquals          Operator = "notEquals"
	Contains           Operator = "contains"
	NotContains        Operator = "notContains"
	StartsWith         Operator = "startsWith"
	EndsWith           Operator = "endsWith"
	GreaterThan        Operator = "greaterThan"
	GreaterThanOrEqual Operator = "greaterThanOrEqual"
	LessThan           Operator = "lessThan"
	LessThanOrEqual    Operator = "lessThanOrEqual"
	In                 Operator = "in"
	NotIn              Operator = "notIn"
	Matches            Operator = "matches"
)

// Test reports whether value satisfies op against operands.
//
// Unknown operators never pass. The only error condition is a malformed
// regular expression supplied to Matches; every other combination of inputs
// yields a plain verdict.
func Test(op Operator, value Value, operands []Operand) (bool, error) {
	switch op {
	case Equals:
		return anyOperand(operands, func(o Operand) bool {
			return o.String() == value.String()
		}), nil

	case NotEquals:
		return allOperands(operands, func(o Operand) bool {
			return o.String() != value.String()
		}), nil

	case Contains:
		return anyOperand(operands, func(o Operand) bool {
			return strings.Contains(value.String(), o.String())
		}), nil

	case NotContains:
		return allOperands(operands, func(o Operand) bool {
			return !strings.Contains(value.String(), o.String())
		}), nil

	case StartsWith:
		return anyOperand(operands, func(o Operand) bool {
			return strings.HasPrefix(value.String(), o.String())
		}), nil

	case EndsWith:
		return anyOperand(operands, func(o Operand) bool {
			return strings.HasSuffix(value.String(), o.String())
		}), nil

	case GreaterThan:
		return compareAny(value, operands, func(cmp int) bool { return cmp > 0 }), nil

	case GreaterThanOrEqual:
		return compareAny(value, operands, func(cmp int) bool { return cmp >= 0 }), nil

	case LessThan:
		return compareAny(value, operands, func(cmp int) bool { return cmp < 0 }), nil

	case LessThanOrEqual:
		return compareAny(value, operands, func(cmp int) bool { return cmp <= 0 }), nil

	case In:
		return anyOperand(operands, func(o Operand) bool {
			return memberOf(value, o)
		}), nil

	case NotIn:
		return allOperands(operands, func(o Operand) bool {
			return !memberOf(value, o)
		}), nil

	case Matches:
		for _, o := range operands {
			re, err := regexp.Compile(o.String())
			if err != nil {
				return false, err
			}
			if re.MatchString(value.String()) {
				return true, nil
			}
		}
		return false, nil

	default:
		// Fail closed on operators this client does not understand.
		return false, nil
	}
}

func anyOperand(operands []Operand, pred func(Operand) bool) bool {
	for _, o := range operands {
		if pred(o) {
			return true
		}
	}
	return false
}

func allOperands(operands []Operand, pred func(Operand) bool) bool {
	for _, o := range operands {
		if !pred(o) {
			return false
		}
	}
	return true
}

// compareAny reports whether the ordering of value against any operand
// satisfies accept. Time values compare as timestamps against operands
// parsed as points in time; everything else compares numerically. Operands
// that cannot be interpreted on the value's axis are skipped.
func compareAny(value Value, operands []Operand, accept func(cmp int) bool) bool {
	if value.isTime() {
		for _, o := range operands {
			t, ok := o.when()
			if !ok {
				continue
			}
			if accept(value.t.Compare(t)) {
				return true
			}
		}
		return false
	}

	left, ok := value.number()
	if !ok {
		return false
	}
	for _, o := range operands {
		right, ok := o.number()
		if !ok {
			continue
		}
		var cmp int
		switch {
		case left < right:
			cmp = -1
		case left > right:
			cmp = 1
		}
		if accept(cmp) {
			return true
		}
	}
	return false
}

// memberOf implements the strict membership test used by In and NotIn:
// strings match strings, numbers match numbers, and no coercion is applied.
// Time values are never members of an operand list.
func memberOf(value Value, o Operand) bool {
	switch value.kind {
	case kindString:
		return !o.isNumber && o.str == value.str
	case kindNumber:
		return o.isNumber && o.num == value.num
	default:
		return false
	}
}
