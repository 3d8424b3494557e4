package types

import (
	"github.com/google/uuid"
)

// NewAuditID generates a UUIDv7 audit identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewAuditID() AuditID {
	return AuditID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a UUIDv7 rule identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// ParseAuditID validates and converts a string to AuditID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseAuditID(s string) (AuditID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return AuditID(s), nil
}

// ParseRuleID validates and converts a string to RuleID.
func ParseRuleID(s string) (RuleID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return RuleID(s), nil
}
