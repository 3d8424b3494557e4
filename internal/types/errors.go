package types

import "errors"

// Sentinel errors for feedaudit operations.
var (
	// ErrEmptyFeed indicates an unreadable or empty feed file.
	ErrEmptyFeed = errors.New("feed is empty")

	// ErrUnknownConditionType indicates an unrecognized condition kind.
	ErrUnknownConditionType = errors.New("unknown condition type")

	// ErrConditionFieldMissing indicates a condition without a target field.
	ErrConditionFieldMissing = errors.New("condition field is required")

	// ErrConditionValueMissing indicates a condition missing its value payload.
	ErrConditionValueMissing = errors.New("condition value is required")

	// ErrConditionValueInvalid indicates a value payload of the wrong shape or type.
	ErrConditionValueInvalid = errors.New("condition value is invalid")

	// ErrUnknownOperator indicates an unsupported cross-field operator.
	ErrUnknownOperator = errors.New("unsupported operator")

	// ErrUnknownDateFormat indicates an unsupported date format.
	ErrUnknownDateFormat = errors.New("unsupported date format")

	// ErrRuleNotFound indicates a rule id that does not resolve.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrAuditNotFound indicates an audit id that does not resolve.
	ErrAuditNotFound = errors.New("audit not found")
)
