// internal/rules/operators.go
package rules

import (
	"strconv"
	"strings"

	"github.com/feedaudit/feedaudit/internal/types"
)

/*
 * Cross-field operator comparison logic.
 *
 * String operators (==, !=, contains) compare case-insensitively. Ordering
 * operators parse both operands as floating point; a failed parse makes the
 * comparison false, never an error.
 *
 * Why function-based: seven operators via switch statement are cleaner than
 * seven interface implementations with minimal behavior variation.
 */

// compareFields applies op to the two field values. The second return is
// false for an unsupported operator.
func compareFields(op types.CrossFieldOperator, value, ref string) (matched, supported bool) {
	switch op {
	case types.OpEqual:
		return strings.EqualFold(value, ref), true
	case types.OpNotEqual:
		return !strings.EqualFold(value, ref), true
	case types.OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(ref)), true
	case types.OpGreater:
		return compareNumeric(value, ref, func(a, b float64) bool { return a > b }), true
	case types.OpGreaterOrEq:
		return compareNumeric(value, ref, func(a, b float64) bool { return a >= b }), true
	case types.OpLess:
		return compareNumeric(value, ref, func(a, b float64) bool { return a < b }), true
	case types.OpLessOrEq:
		return compareNumeric(value, ref, func(a, b float64) bool { return a <= b }), true
	default:
		return false, false
	}
}

// compareNumeric parses both operands as float64 and applies cmp.
// Either parse failing makes the comparison false.
func compareNumeric(a, b string, cmp func(a, b float64) bool) bool {
	fa, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return false
	}
	fb, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return false
	}
	return cmp(fa, fb)
}

// operatorPhrase returns the human-readable phrase for op, used in
// violation details.
func operatorPhrase(op types.CrossFieldOperator) string {
	switch op {
	case types.OpEqual:
		return "equal to"
	case types.OpNotEqual:
		return "not equal to"
	case types.OpContains:
		return "containing"
	case types.OpGreater:
		return "greater than"
	case types.OpGreaterOrEq:
		return "greater than or equal to"
	case types.OpLess:
		return "less than"
	case types.OpLessOrEq:
		return "less than or equal to"
	default:
		return string(op)
	}
}
