// Package types provides domain models shared across feedaudit components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the parsing and evaluation packages stay lightweight.
// ID utilities in ids.go import uuid but are isolated for selective inclusion.
package types

import "time"

// AuditID represents a UUIDv7 audit identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type AuditID string

// RuleID represents a UUIDv7 rule identifier.
type RuleID string

// Status is the per (record, rule) verdict produced by evaluation.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Criticality is the severity attached to a rule. It becomes the verdict
// status when the rule's condition is violated.
type Criticality string

const (
	CriticalityWarning  Criticality = "warning"
	CriticalityCritical Criticality = "critical"
)

// Valid reports whether c is one of the two known criticality levels.
func (c Criticality) Valid() bool {
	return c == CriticalityWarning || c == CriticalityCritical
}

// Status converts a criticality level to its violation status.
func (c Criticality) Status() Status {
	if c == CriticalityCritical {
		return StatusCritical
	}
	return StatusWarning
}

// Record maps canonical field identifiers to raw string values for one feed
// row. Missing or unmapped fields normalize to the empty string, never to a
// nil-like absent value, so every condition can assume a string.
type Record map[string]string

// NoProductID is the placeholder product id assigned to records whose
// id-equivalent field is missing or empty. Such records are kept rather than
// dropped so audits never silently lose rows.
const NoProductID = "NO_ID_MAPPED"

// AuditResult is one persisted row per (record, rule) pair evaluated.
type AuditResult struct {
	AuditID   AuditID `db:"audit_id" json:"auditId"`
	RuleID    RuleID  `db:"rule_id" json:"ruleId"`
	ProductID string  `db:"product_id" json:"productId"`
	Status    Status  `db:"status" json:"status"`
	Details   string  `db:"details" json:"details,omitempty"`
}

// AuditState tracks the audit lifecycle.
type AuditState string

const (
	AuditRunning   AuditState = "running"
	AuditCompleted AuditState = "completed"
	AuditFailed    AuditState = "failed"
)

// Audit is the aggregate record for one feed evaluation. Counters start at
// zero, are mutated by the batch processor after every chunk, and are
// finalized once all chunks complete. Reprocessing creates a new Audit
// sharing the original content; it never mutates this one.
type Audit struct {
	ID                AuditID    `db:"audit_id" json:"auditId"`
	Name              string     `db:"name" json:"name"`
	Fingerprint       string     `db:"fingerprint" json:"fingerprint"` // SHA-256 of raw feed bytes
	State             AuditState `db:"state" json:"state"`
	TotalProducts     int        `db:"total_products" json:"totalProducts"`
	TotalRules        int        `db:"total_rules" json:"totalRules"`
	RulesProcessed    int        `db:"rules_processed" json:"rulesProcessed"`
	Progress          int        `db:"progress" json:"progress"` // 0-100
	CompliantProducts int        `db:"compliant_products" json:"compliantProducts"`
	WarningProducts   int        `db:"warning_products" json:"warningProducts"`
	CriticalProducts  int        `db:"critical_products" json:"criticalProducts"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}

// ComplianceCounts holds per-product worst-status tallies for one audit.
type ComplianceCounts struct {
	Compliant int `json:"compliant"`
	Warning   int `json:"warning"`
	Critical  int `json:"critical"`
}

// ExportCell is one (product, rule) projection used by the export table.
type ExportCell struct {
	ProductID string `db:"product_id"`
	RuleName  string `db:"rule_name"`
	Status    Status `db:"status"`
	Details   string `db:"details"`
}

// ProductStatus is one distinct (product, status) pair of an audit.
type ProductStatus struct {
	ProductID string `db:"product_id"`
	Status    Status `db:"status"`
}

// RuleStatusCount is the distinct-product count for one (rule, status) pair.
type RuleStatusCount struct {
	RuleID   RuleID `db:"rule_id"`
	RuleName string `db:"rule_name"`
	Status   Status `db:"status"`
	Products int    `db:"n"`
}

// RuleBreakdown holds the per-rule status distribution for one audit.
// Percentages are computed over the distinct product count for that rule,
// not over raw row count, to tolerate duplicate evaluations.
type RuleBreakdown struct {
	RuleName    string  `json:"ruleName"`
	Products    int     `json:"products"`
	OKPct       float64 `json:"okPct"`
	WarningPct  float64 `json:"warningPct"`
	CriticalPct float64 `json:"criticalPct"`
}
