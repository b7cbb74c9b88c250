// Package condition provides pure predicate functions for feature rule
// targeting.
//
// A condition compares a single context value against a list of target
// operands using a named operator. The package is stateless: callers supply
// the value, the operator, and the operands, and receive a boolean verdict.
//
// # Values and Operands
//
// Context values are represented by the closed Value type, which holds
// exactly one of a string, a number, or a point in time:
//
//	condition.StringValue("melbourne")
//	condition.NumberValue(17)
//	condition.TimeValue(time.Now())
//
// Target operands come from rule definitions and are either strings or
// numbers. Operand implements json.Unmarshaler so rule payloads decode
// directly into []Operand.
//
// # Semantics
//
// A condition passes when ANY operand satisfies the operator against the
// value, except for the negated operators (notEquals, notContains, notIn)
// where EVERY operand must fail to match. Ordering comparisons treat a
// time-typed value as a timestamp and parse each operand as a point in
// time; otherwise both sides are compared numerically.
//
// Unknown operators never pass. A malformed regular expression in a
// "matches" operand is reported as an error so callers can decide how to
// degrade.
package condition
