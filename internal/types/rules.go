// internal/types/rules.go
package types

/*
 * Domain types for rule definitions.
 *
 * Provides Rule and the closed Condition union used by internal/rules for
 * evaluation. Conditions are a tagged variant keyed by a "type" field on
 * the wire; ParseCondition validates shape and typing once at the
 * rule-creation boundary so the evaluator never has to type-guess.
 *
 * Key types:
 *   - Rule: complete rule definition with criticality level
 *   - Condition: sealed interface over the nine condition kinds
 *   - CrossFieldOperator: comparison operators for cross-field conditions
 *   - DateFormat: closed set of accepted date layouts
 *
 * Rules are immutable once created and copied by value into an audit's rule
 * snapshot, so later edits never affect a running audit.
 */

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ConditionKind discriminates the condition union on the wire.
type ConditionKind string

const (
	KindNotEmpty      ConditionKind = "notEmpty"
	KindMinLength     ConditionKind = "minLength"
	KindMaxLength     ConditionKind = "maxLength"
	KindContains      ConditionKind = "contains"
	KindDoesntContain ConditionKind = "doesntContain"
	KindRegex         ConditionKind = "regex"
	KindRange         ConditionKind = "range"
	KindCrossField    ConditionKind = "crossField"
	KindDate          ConditionKind = "date"
)

// Condition is the closed set of rule predicates. Implementations live in
// this package only; the evaluator pattern-matches exhaustively over them.
type Condition interface {
	Kind() ConditionKind
	// TargetField is the canonical field identifier the condition inspects.
	TargetField() string
}

// NotEmptyCondition requires a non-whitespace value.
type NotEmptyCondition struct {
	Field string `json:"field"`
}

// MinLengthCondition requires at least Min characters (rune count).
type MinLengthCondition struct {
	Field string `json:"field"`
	Min   int    `json:"value"`
}

// MaxLengthCondition allows at most Max characters (rune count).
type MaxLengthCondition struct {
	Field string `json:"field"`
	Max   int    `json:"value"`
}

// ContainsCondition requires the value to contain Substring.
type ContainsCondition struct {
	Field         string `json:"field"`
	Substring     string `json:"value"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`
}

// DoesntContainCondition forbids Substring in the value.
type DoesntContainCondition struct {
	Field         string `json:"field"`
	Substring     string `json:"value"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`
}

// RegexCondition requires the value to match Pattern. Matching is
// case-insensitive unless CaseSensitive is set.
type RegexCondition struct {
	Field         string `json:"field"`
	Pattern       string `json:"value"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`
}

// RangeCondition requires the value to parse as a number within [Min, Max].
type RangeCondition struct {
	Field string  `json:"field"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// CrossFieldCondition compares the target field's value against another
// field's value within the same record.
type CrossFieldCondition struct {
	Field    string             `json:"field"`
	RefField string             `json:"refField"`
	Operator CrossFieldOperator `json:"operator"`
}

// DateCondition requires the value to parse under the configured format.
type DateCondition struct {
	Field  string     `json:"field"`
	Format DateFormat `json:"dateFormat"`
}

func (c NotEmptyCondition) Kind() ConditionKind      { return KindNotEmpty }
func (c MinLengthCondition) Kind() ConditionKind     { return KindMinLength }
func (c MaxLengthCondition) Kind() ConditionKind     { return KindMaxLength }
func (c ContainsCondition) Kind() ConditionKind      { return KindContains }
func (c DoesntContainCondition) Kind() ConditionKind { return KindDoesntContain }
func (c RegexCondition) Kind() ConditionKind         { return KindRegex }
func (c RangeCondition) Kind() ConditionKind         { return KindRange }
func (c CrossFieldCondition) Kind() ConditionKind    { return KindCrossField }
func (c DateCondition) Kind() ConditionKind          { return KindDate }

func (c NotEmptyCondition) TargetField() string      { return c.Field }
func (c MinLengthCondition) TargetField() string     { return c.Field }
func (c MaxLengthCondition) TargetField() string     { return c.Field }
func (c ContainsCondition) TargetField() string      { return c.Field }
func (c DoesntContainCondition) TargetField() string { return c.Field }
func (c RegexCondition) TargetField() string         { return c.Field }
func (c RangeCondition) TargetField() string         { return c.Field }
func (c CrossFieldCondition) TargetField() string    { return c.Field }
func (c DateCondition) TargetField() string          { return c.Field }

// CrossFieldOperator enumerates cross-field comparison operators.
// String operators (==, !=, contains) compare case-insensitively; ordering
// operators parse both operands as floating point.
type CrossFieldOperator string

const (
	OpEqual       CrossFieldOperator = "=="
	OpNotEqual    CrossFieldOperator = "!="
	OpContains    CrossFieldOperator = "contains"
	OpGreater     CrossFieldOperator = ">"
	OpGreaterOrEq CrossFieldOperator = ">="
	OpLess        CrossFieldOperator = "<"
	OpLessOrEq    CrossFieldOperator = "<="
)

// KnownOperator reports whether op is a supported cross-field operator.
func KnownOperator(op CrossFieldOperator) bool {
	switch op {
	case OpEqual, OpNotEqual, OpContains, OpGreater, OpGreaterOrEq, OpLess, OpLessOrEq:
		return true
	}
	return false
}

// DateFormat is the closed set of accepted date layouts.
type DateFormat string

const (
	DateISO    DateFormat = "ISO" // RFC 3339, with date-only fallback
	DateYMD    DateFormat = "YYYY-MM-DD"
	DateDMY    DateFormat = "DD/MM/YYYY"
	DateMDY    DateFormat = "MM/DD/YYYY"
	DateDMYDot DateFormat = "DD.MM.YYYY"
)

// KnownDateFormat reports whether f is a supported date format.
func KnownDateFormat(f DateFormat) bool {
	switch f {
	case DateISO, DateYMD, DateDMY, DateMDY, DateDMYDot:
		return true
	}
	return false
}

// Rule is a complete rule definition. Immutable once created; owned by the
// rule store and referenced by value during evaluation.
type Rule struct {
	ID          RuleID      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`
	Criticality Criticality `json:"criticality"`
	Condition   Condition   `json:"condition"`
}

// conditionEnvelope is the wire shape of a condition. The value payload's
// type depends on the condition kind, so it stays raw until the kind is known.
type conditionEnvelope struct {
	Type          ConditionKind   `json:"type"`
	Field         string          `json:"field"`
	Value         json.RawMessage `json:"value"`
	CaseSensitive bool            `json:"caseSensitive"`
	DateFormat    DateFormat      `json:"dateFormat"`
}

// crossFieldValue is the {field, operator} payload of a crossField condition.
type crossFieldValue struct {
	Field    string             `json:"field"`
	Operator CrossFieldOperator `json:"operator"`
}

// rangeValue is the {min, max} payload of a range condition.
type rangeValue struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// ParseCondition decodes and validates a condition from its wire form.
// All shape and typing errors surface here, at the rule-creation boundary;
// a condition that parses is structurally sound for evaluation.
func ParseCondition(raw json.RawMessage) (Condition, error) {
	var env conditionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}
	if env.Field == "" {
		return nil, ErrConditionFieldMissing
	}

	switch env.Type {
	case KindNotEmpty:
		return NotEmptyCondition{Field: env.Field}, nil

	case KindMinLength:
		n, err := intValue(env.Value)
		if err != nil {
			return nil, fmt.Errorf("minLength: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("minLength: %w: negative length %d", ErrConditionValueInvalid, n)
		}
		return MinLengthCondition{Field: env.Field, Min: n}, nil

	case KindMaxLength:
		n, err := intValue(env.Value)
		if err != nil {
			return nil, fmt.Errorf("maxLength: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("maxLength: %w: negative length %d", ErrConditionValueInvalid, n)
		}
		return MaxLengthCondition{Field: env.Field, Max: n}, nil

	case KindContains:
		s, err := stringValue(env.Value)
		if err != nil {
			return nil, fmt.Errorf("contains: %w", err)
		}
		return ContainsCondition{Field: env.Field, Substring: s, CaseSensitive: env.CaseSensitive}, nil

	case KindDoesntContain:
		s, err := stringValue(env.Value)
		if err != nil {
			return nil, fmt.Errorf("doesntContain: %w", err)
		}
		return DoesntContainCondition{Field: env.Field, Substring: s, CaseSensitive: env.CaseSensitive}, nil

	case KindRegex:
		s, err := stringValue(env.Value)
		if err != nil {
			return nil, fmt.Errorf("regex: %w", err)
		}
		pattern := s
		if !env.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("regex: %w: %v", ErrConditionValueInvalid, err)
		}
		return RegexCondition{Field: env.Field, Pattern: s, CaseSensitive: env.CaseSensitive}, nil

	case KindRange:
		if len(env.Value) == 0 {
			return nil, fmt.Errorf("range: %w", ErrConditionValueMissing)
		}
		var rv rangeValue
		if err := json.Unmarshal(env.Value, &rv); err != nil {
			return nil, fmt.Errorf("range: %w: %v", ErrConditionValueInvalid, err)
		}
		if rv.Min == nil || rv.Max == nil {
			return nil, fmt.Errorf("range: %w: min and max required", ErrConditionValueInvalid)
		}
		if *rv.Min > *rv.Max {
			return nil, fmt.Errorf("range: %w: min %v greater than max %v", ErrConditionValueInvalid, *rv.Min, *rv.Max)
		}
		return RangeCondition{Field: env.Field, Min: *rv.Min, Max: *rv.Max}, nil

	case KindCrossField:
		if len(env.Value) == 0 {
			return nil, fmt.Errorf("crossField: %w", ErrConditionValueMissing)
		}
		var cv crossFieldValue
		if err := json.Unmarshal(env.Value, &cv); err != nil {
			return nil, fmt.Errorf("crossField: %w: %v", ErrConditionValueInvalid, err)
		}
		if cv.Field == "" {
			return nil, fmt.Errorf("crossField: %w: comparison field required", ErrConditionValueInvalid)
		}
		if !KnownOperator(cv.Operator) {
			return nil, fmt.Errorf("crossField: %w: %q", ErrUnknownOperator, cv.Operator)
		}
		return CrossFieldCondition{Field: env.Field, RefField: cv.Field, Operator: cv.Operator}, nil

	case KindDate:
		format := env.DateFormat
		if format == "" {
			format = DateISO
		}
		if !KnownDateFormat(format) {
			return nil, fmt.Errorf("date: %w: %q", ErrUnknownDateFormat, format)
		}
		return DateCondition{Field: env.Field, Format: format}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConditionType, env.Type)
	}
}

// EncodeCondition converts a condition back to its wire form, the inverse
// of ParseCondition. Used by the rule store to persist conditions as JSON.
func EncodeCondition(c Condition) (json.RawMessage, error) {
	env := map[string]any{
		"type":  c.Kind(),
		"field": c.TargetField(),
	}
	switch v := c.(type) {
	case NotEmptyCondition:
	case MinLengthCondition:
		env["value"] = v.Min
	case MaxLengthCondition:
		env["value"] = v.Max
	case ContainsCondition:
		env["value"] = v.Substring
		if v.CaseSensitive {
			env["caseSensitive"] = true
		}
	case DoesntContainCondition:
		env["value"] = v.Substring
		if v.CaseSensitive {
			env["caseSensitive"] = true
		}
	case RegexCondition:
		env["value"] = v.Pattern
		if v.CaseSensitive {
			env["caseSensitive"] = true
		}
	case RangeCondition:
		env["value"] = map[string]float64{"min": v.Min, "max": v.Max}
	case CrossFieldCondition:
		env["value"] = map[string]any{"field": v.RefField, "operator": v.Operator}
	case DateCondition:
		env["dateFormat"] = v.Format
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownConditionType, c)
	}
	return json.Marshal(env)
}

// intValue decodes a required integer payload.
func intValue(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, ErrConditionValueMissing
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: expected integer", ErrConditionValueInvalid)
	}
	return n, nil
}

// stringValue decodes a required string payload.
func stringValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", ErrConditionValueMissing
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: expected string", ErrConditionValueInvalid)
	}
	if s == "" {
		return "", fmt.Errorf("%w: empty string", ErrConditionValueInvalid)
	}
	return s, nil
}
