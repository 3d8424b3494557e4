// Package audit drives the feed audit pipeline: ingestion, chunked rule
// evaluation with progress reporting, aggregation and export.
package audit

import (
	"context"

	"github.com/feedaudit/feedaudit/internal/types"
)

// Repository is the storage contract the pipeline needs. internal/store
// implements it over SQLite/PostgreSQL; tests use an in-memory fake.
type Repository interface {
	CreateAudit(ctx context.Context, a *types.Audit) error
	GetAudit(ctx context.Context, id types.AuditID) (*types.Audit, error)
	UpdateAuditProgress(ctx context.Context, id types.AuditID, rulesProcessed, progress int) error
	FinalizeAudit(ctx context.Context, id types.AuditID, counts types.ComplianceCounts) error
	MarkAuditFailed(ctx context.Context, id types.AuditID) error

	SaveFeed(ctx context.Context, id types.AuditID, content string, mapping map[string]string) error
	GetFeed(ctx context.Context, id types.AuditID) (string, map[string]string, error)

	RulesByIDs(ctx context.Context, ids []types.RuleID) ([]types.Rule, error)

	InsertResults(ctx context.Context, results []types.AuditResult) error
	ResultsByAudit(ctx context.Context, id types.AuditID) ([]types.AuditResult, error)
	ExportCells(ctx context.Context, id types.AuditID) ([]types.ExportCell, error)
	ProductStatuses(ctx context.Context, id types.AuditID) ([]types.ProductStatus, error)
	RuleStatusCounts(ctx context.Context, id types.AuditID) ([]types.RuleStatusCount, error)
}
