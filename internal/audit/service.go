// internal/audit/service.go
package audit

/*
 * Audit orchestration.
 *
 * RunAudit is the full ingestion pipeline: sanitize -> validate structure ->
 * parse -> project -> load rule snapshot -> create audit -> chunked
 * evaluation. Structural failures surface before any audit row exists, so a
 * malformed feed fails fast with a line-numbered diagnostic. Once ingestion
 * succeeds, evaluation itself never fails outright: worst case every
 * (record, rule) pair reports a warning with a diagnostic detail.
 *
 * Reprocess creates a new audit over the original sanitized content and
 * column mapping with a possibly different rule selection; the original
 * audit is never mutated.
 */

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feedaudit/feedaudit/internal/feed"
	"github.com/feedaudit/feedaudit/internal/types"
)

// Service runs audits end to end against a repository.
type Service struct {
	repo      Repository
	chunkSize int
	log       *slog.Logger
}

// NewService creates an audit service. chunkSize <= 0 selects
// DefaultChunkSize; a nil logger selects slog.Default().
func NewService(repo Repository, chunkSize int, log *slog.Logger) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, chunkSize: chunkSize, log: log}
}

// RunAudit ingests a raw feed and evaluates the selected rules against it.
// Fatal ingestion errors (empty feed, column-count mismatch) return before
// an audit is created. Processing errors mark the audit failed; committed
// result chunks are retained for diagnostics.
func (s *Service) RunAudit(ctx context.Context, name string, raw []byte, mapping feed.Mapping, ruleIDs []types.RuleID) (*types.Audit, error) {
	sanitized, err := feed.Sanitize(raw)
	if err != nil {
		return nil, fmt.Errorf("sanitize feed: %w", err)
	}
	if err := feed.ValidateStructure(sanitized); err != nil {
		return nil, fmt.Errorf("validate feed: %w", err)
	}

	return s.start(ctx, name, feed.Fingerprint(raw), sanitized, mapping, ruleIDs)
}

// Reprocess creates a new audit sharing an earlier audit's sanitized
// content and column mapping, evaluated under a new rule selection.
func (s *Service) Reprocess(ctx context.Context, originalID types.AuditID, name string, ruleIDs []types.RuleID) (*types.Audit, error) {
	original, err := s.repo.GetAudit(ctx, originalID)
	if err != nil {
		return nil, err
	}
	content, mapping, err := s.repo.GetFeed(ctx, originalID)
	if err != nil {
		return nil, fmt.Errorf("load feed of audit %s: %w", originalID, err)
	}
	if name == "" {
		name = original.Name + " (reprocessed)"
	}

	return s.start(ctx, name, original.Fingerprint, content, mapping, ruleIDs)
}

// start parses sanitized content, creates the audit aggregate and drives
// the batch processor over it.
func (s *Service) start(ctx context.Context, name, fingerprint, sanitized string, mapping feed.Mapping, ruleIDs []types.RuleID) (*types.Audit, error) {
	rows, stats, err := feed.Parse(sanitized)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if stats.SkippedRows > 0 {
		s.log.Warn("rows skipped during parse", "skipped", stats.SkippedRows, "total", stats.TotalRows)
	}
	records := feed.Project(rows, mapping)

	ruleSet, err := s.repo.RulesByIDs(ctx, ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	audit := &types.Audit{
		ID:            types.NewAuditID(),
		Name:          name,
		Fingerprint:   fingerprint,
		State:         types.AuditRunning,
		TotalProducts: len(records),
		TotalRules:    len(ruleSet),
	}
	if err := s.repo.CreateAudit(ctx, audit); err != nil {
		return nil, fmt.Errorf("create audit: %w", err)
	}
	if err := s.repo.SaveFeed(ctx, audit.ID, sanitized, mapping); err != nil {
		return nil, fmt.Errorf("save feed content: %w", err)
	}

	s.log.Info("audit started",
		"audit_id", audit.ID, "name", name, "products", len(records), "rules", len(ruleSet))

	processor := NewProcessor(s.repo, s.chunkSize, s.log)
	if err := processor.Run(ctx, audit.ID, records, ruleSet); err != nil {
		if failErr := s.repo.MarkAuditFailed(ctx, audit.ID); failErr != nil {
			s.log.Error("mark audit failed", "audit_id", audit.ID, "error", failErr)
		}
		return nil, fmt.Errorf("process audit %s: %w", audit.ID, err)
	}

	return s.repo.GetAudit(ctx, audit.ID)
}
