// Package assertions provides the comparisons behind scenario expectations.
//
// Scenario files carry YAML scalars while the engine collects Go values
// (ints, string slices, models), so values are compared by their printed
// form. An expectation may also be an operator map:
//
//	a.changed: {contains: "2"}
//	a.deleted: {len: 2}
//	stats.buckets: {min: 1, max: 4}
//	errors: {empty: true}
package assertions

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Result represents the outcome of an assertion.
type Result struct {
	// Passed indicates if the assertion passed.
	Passed bool

	// Message describes the assertion result.
	Message string

	// Expected is the expected value (for error messages).
	Expected any

	// Actual is the actual value (for error messages).
	Actual any
}

// Pass creates a passing result.
func Pass(message string) *Result {
	return &Result{Passed: true, Message: message}
}

// Fail creates a failing result.
func Fail(message string, expected, actual any) *Result {
	return &Result{
		Passed:   false,
		Message:  message,
		Expected: expected,
		Actual:   actual,
	}
}

// Operator names understood by Evaluate.
const (
	OpContains = "contains"
	OpLen      = "len"
	OpMin      = "min"
	OpMax      = "max"
	OpGT       = "gt"
	OpLT       = "lt"
	OpEmpty    = "empty"
)

var operators = map[string]bool{
	OpContains: true, OpLen: true, OpMin: true, OpMax: true,
	OpGT: true, OpLT: true, OpEmpty: true,
}

// Evaluate checks actual against expected. A map whose keys are all
// operator names is applied operator by operator; anything else is an
// equality check.
func Evaluate(expected, actual any) *Result {
	ops, ok := operatorMap(expected)
	if !ok {
		return Equal(expected, actual)
	}

	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	var passed []string
	for _, name := range names {
		arg := ops[name]
		var r *Result
		switch name {
		case OpContains:
			r = Contains(actual, arg)
		case OpLen:
			n, ok := toFloat64(arg)
			if !ok {
				return Fail("len needs a number", arg, actual)
			}
			r = Len(actual, int(n))
		case OpMin:
			r = AtLeast(actual, arg)
		case OpMax:
			r = AtMost(actual, arg)
		case OpGT:
			r = GreaterThan(actual, arg)
		case OpLT:
			r = LessThan(actual, arg)
		case OpEmpty:
			if b, _ := arg.(bool); b {
				r = Empty(actual)
			} else {
				r = NotEmpty(actual)
			}
		}
		if !r.Passed {
			return r
		}
		passed = append(passed, r.Message)
	}
	return Pass(strings.Join(passed, ", "))
}

func operatorMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !operators[k] {
			return nil, false
		}
	}
	return m, true
}

// Equal asserts that two values print the same.
func Equal(expected, actual any) *Result {
	if fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual) {
		return Pass(fmt.Sprintf("values are equal: %v", expected))
	}
	return Fail(fmt.Sprintf("expected %v, got %v", expected, actual), expected, actual)
}

// Contains asserts that a slice or string contains a value.
func Contains(container, element any) *Result {
	e := fmt.Sprintf("%v", element)
	cv := reflect.ValueOf(container)

	switch cv.Kind() {
	case reflect.String:
		s := cv.String()
		if strings.Contains(s, e) {
			return Pass(fmt.Sprintf("string contains %q", e))
		}
		return Fail(fmt.Sprintf("string does not contain %q", e), e, s)

	case reflect.Slice, reflect.Array:
		for i := 0; i < cv.Len(); i++ {
			if fmt.Sprintf("%v", cv.Index(i).Interface()) == e {
				return Pass(fmt.Sprintf("contains %s", e))
			}
		}
		return Fail(fmt.Sprintf("%v does not contain %s", container, e), element, container)

	default:
		return Fail("container must be a string or a list", "container", cv.Kind().String())
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func compare(value, threshold any, op string, ok func(v, t float64) bool) *Result {
	vf, vok := toFloat64(value)
	tf, tok := toFloat64(threshold)

	if !vok || !tok {
		return Fail("values must be numeric", op+" threshold", value)
	}

	if ok(vf, tf) {
		return Pass(fmt.Sprintf("%v %s %v", value, op, threshold))
	}
	return Fail(fmt.Sprintf("%v is not %s %v", value, op, threshold),
		fmt.Sprintf("%s %v", op, threshold), value)
}

// GreaterThan asserts that a value is greater than another.
func GreaterThan(value, threshold any) *Result {
	return compare(value, threshold, ">", func(v, t float64) bool { return v > t })
}

// LessThan asserts that a value is less than another.
func LessThan(value, threshold any) *Result {
	return compare(value, threshold, "<", func(v, t float64) bool { return v < t })
}

// AtLeast asserts that a value is not below a bound.
func AtLeast(value, bound any) *Result {
	return compare(value, bound, ">=", func(v, t float64) bool { return v >= t })
}

// AtMost asserts that a value is not above a bound.
func AtMost(value, bound any) *Result {
	return compare(value, bound, "<=", func(v, t float64) bool { return v <= t })
}

func length(collection any) (int, bool) {
	if collection == nil {
		return 0, true
	}
	cv := reflect.ValueOf(collection)
	switch cv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return cv.Len(), true
	default:
		return 0, false
	}
}

// Len asserts that a collection has a specific length. Nil counts as empty.
func Len(collection any, expectedLen int) *Result {
	actualLen, ok := length(collection)
	if !ok {
		return Fail("value must be a collection", "collection", fmt.Sprintf("%T", collection))
	}

	if actualLen == expectedLen {
		return Pass(fmt.Sprintf("length is %d", expectedLen))
	}
	return Fail(fmt.Sprintf("expected length %d, got %d", expectedLen, actualLen), expectedLen, actualLen)
}

// Empty asserts that a collection is empty.
func Empty(collection any) *Result {
	return Len(collection, 0)
}

// NotEmpty asserts that a collection is not empty.
func NotEmpty(collection any) *Result {
	actualLen, ok := length(collection)
	if !ok {
		return Fail("value must be a collection", "collection", fmt.Sprintf("%T", collection))
	}

	if actualLen > 0 {
		return Pass(fmt.Sprintf("collection has %d elements", actualLen))
	}
	return Fail("expected non-empty collection", "> 0", 0)
}
