// internal/store/store.go
package store

/*
 * Repository implementation.
 *
 * Thin mapping layer between domain types and the relational schema. Rule
 * conditions persist as their JSON wire form and are re-validated through
 * types.ParseCondition on load, so a rule that reads back is structurally
 * sound for evaluation. Timestamps are stored as RFC 3339 text for
 * driver-agnostic scanning.
 *
 * Result rows are inserted one chunk at a time inside a transaction: the
 * chunk either persists completely or not at all, which keeps progress
 * counters honest after a crash.
 */

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/feedaudit/feedaudit/internal/types"
)

// Store is the sqlx-backed repository for rules, audits and results.
type Store struct {
	db *sqlx.DB
	q  *queries
}

// New creates a Store over an open database connection.
func New(db *sqlx.DB) (*Store, error) {
	q, err := loadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, q: q}, nil
}

// ruleRow is the relational shape of a rule.
type ruleRow struct {
	RuleID      string `db:"rule_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Category    string `db:"category"`
	Criticality string `db:"criticality"`
	Condition   string `db:"condition"`
}

func (r ruleRow) toDomain() (types.Rule, error) {
	cond, err := types.ParseCondition(json.RawMessage(r.Condition))
	if err != nil {
		return types.Rule{}, fmt.Errorf("rule %s: %w", r.RuleID, err)
	}
	return types.Rule{
		ID:          types.RuleID(r.RuleID),
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Criticality: types.Criticality(r.Criticality),
		Condition:   cond,
	}, nil
}

// CreateRule persists a new rule. The condition is encoded to its JSON wire
// form; callers must have built it through types.ParseCondition.
func (s *Store) CreateRule(ctx context.Context, rule types.Rule) error {
	raw, err := types.EncodeCondition(rule.Condition)
	if err != nil {
		return err
	}
	_, err = s.q.exec(ctx, "create-rule",
		string(rule.ID), rule.Name, rule.Description, rule.Category,
		string(rule.Criticality), string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetRule loads one rule by id.
func (s *Store) GetRule(ctx context.Context, id types.RuleID) (types.Rule, error) {
	var row ruleRow
	if err := s.q.get(ctx, "get-rule", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Rule{}, types.ErrRuleNotFound
		}
		return types.Rule{}, err
	}
	return row.toDomain()
}

// ListRules returns all rules in creation order.
func (s *Store) ListRules(ctx context.Context) ([]types.Rule, error) {
	var rows []ruleRow
	if err := s.q.selectAll(ctx, "list-rules", &rows); err != nil {
		return nil, err
	}
	rules := make([]types.Rule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// RulesByIDs loads the given rules preserving selection order. Identifiers
// that fail to resolve are silently skipped.
func (s *Store) RulesByIDs(ctx context.Context, ids []types.RuleID) ([]types.Rule, error) {
	rules := make([]types.Rule, 0, len(ids))
	for _, id := range ids {
		rule, err := s.GetRule(ctx, id)
		if errors.Is(err, types.ErrRuleNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// auditRow is the relational shape of an audit.
type auditRow struct {
	AuditID           string `db:"audit_id"`
	Name              string `db:"name"`
	Fingerprint       string `db:"fingerprint"`
	State             string `db:"state"`
	TotalProducts     int    `db:"total_products"`
	TotalRules        int    `db:"total_rules"`
	RulesProcessed    int    `db:"rules_processed"`
	Progress          int    `db:"progress"`
	CompliantProducts int    `db:"compliant_products"`
	WarningProducts   int    `db:"warning_products"`
	CriticalProducts  int    `db:"critical_products"`
	CreatedAt         string `db:"created_at"`
}

// CreateAudit persists a fresh audit aggregate with zeroed counters.
func (s *Store) CreateAudit(ctx context.Context, a *types.Audit) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.exec(ctx, "create-audit",
		string(a.ID), a.Name, a.Fingerprint, string(a.State),
		a.TotalProducts, a.TotalRules, a.RulesProcessed, a.Progress,
		a.CompliantProducts, a.WarningProducts, a.CriticalProducts,
		a.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// GetAudit loads one audit by id.
func (s *Store) GetAudit(ctx context.Context, id types.AuditID) (*types.Audit, error) {
	var row auditRow
	if err := s.q.get(ctx, "get-audit", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAuditNotFound
		}
		return nil, err
	}
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	return &types.Audit{
		ID:                types.AuditID(row.AuditID),
		Name:              row.Name,
		Fingerprint:       row.Fingerprint,
		State:             types.AuditState(row.State),
		TotalProducts:     row.TotalProducts,
		TotalRules:        row.TotalRules,
		RulesProcessed:    row.RulesProcessed,
		Progress:          row.Progress,
		CompliantProducts: row.CompliantProducts,
		WarningProducts:   row.WarningProducts,
		CriticalProducts:  row.CriticalProducts,
		CreatedAt:         createdAt,
	}, nil
}

// UpdateAuditProgress writes the running counters after one chunk.
func (s *Store) UpdateAuditProgress(ctx context.Context, id types.AuditID, rulesProcessed, progress int) error {
	_, err := s.q.exec(ctx, "update-audit-progress", rulesProcessed, progress, string(id))
	return err
}

// FinalizeAudit pins progress to 100, marks the audit completed and writes
// the final aggregate counts.
func (s *Store) FinalizeAudit(ctx context.Context, id types.AuditID, counts types.ComplianceCounts) error {
	_, err := s.q.exec(ctx, "finalize-audit",
		counts.Compliant, counts.Warning, counts.Critical, string(id))
	return err
}

// MarkAuditFailed marks an audit whose ingestion or processing failed.
// Already-committed result chunks are retained for diagnostics.
func (s *Store) MarkAuditFailed(ctx context.Context, id types.AuditID) error {
	_, err := s.q.exec(ctx, "fail-audit", string(id))
	return err
}

// SaveFeed stores the sanitized feed content and column mapping alongside an
// audit, enabling reprocessing with a different rule selection.
func (s *Store) SaveFeed(ctx context.Context, id types.AuditID, content string, mapping map[string]string) error {
	m, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	_, err = s.q.exec(ctx, "save-feed", string(id), content, string(m))
	return err
}

// GetFeed loads the stored feed content and column mapping of an audit.
func (s *Store) GetFeed(ctx context.Context, id types.AuditID) (string, map[string]string, error) {
	var row struct {
		AuditID string `db:"audit_id"`
		Content string `db:"content"`
		Mapping string `db:"mapping"`
	}
	if err := s.q.get(ctx, "get-feed", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, types.ErrAuditNotFound
		}
		return "", nil, err
	}
	var mapping map[string]string
	if err := json.Unmarshal([]byte(row.Mapping), &mapping); err != nil {
		return "", nil, fmt.Errorf("audit %s: corrupt mapping: %w", id, err)
	}
	return row.Content, mapping, nil
}

// InsertResults persists one chunk of results in a single transaction.
func (s *Store) InsertResults(ctx context.Context, results []types.AuditResult) error {
	if len(results) == 0 {
		return nil
	}
	text, err := s.q.raw("insert-result")
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PreparexContext(ctx, text)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			string(r.AuditID), string(r.RuleID), r.ProductID, string(r.Status), r.Details,
		); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("insert result (%s, %s): %w", r.ProductID, r.RuleID, err)
		}
	}
	stmt.Close()
	return tx.Commit()
}

// ResultsByAudit returns all persisted results for an audit in insert order.
func (s *Store) ResultsByAudit(ctx context.Context, id types.AuditID) ([]types.AuditResult, error) {
	var results []types.AuditResult
	if err := s.q.selectAll(ctx, "results-by-audit", &results, string(id)); err != nil {
		return nil, err
	}
	return results, nil
}

// ExportCells returns (product, rule name, status, details) projections for
// the export table, in insert order.
func (s *Store) ExportCells(ctx context.Context, id types.AuditID) ([]types.ExportCell, error) {
	var cells []types.ExportCell
	if err := s.q.selectAll(ctx, "results-with-rule-names", &cells, string(id)); err != nil {
		return nil, err
	}
	return cells, nil
}

// ProductStatuses returns the distinct (product, status) pairs of an audit.
func (s *Store) ProductStatuses(ctx context.Context, id types.AuditID) ([]types.ProductStatus, error) {
	var rows []types.ProductStatus
	if err := s.q.selectAll(ctx, "product-statuses", &rows, string(id)); err != nil {
		return nil, err
	}
	return rows, nil
}

// RuleStatusCounts returns distinct-product counts per (rule, status).
func (s *Store) RuleStatusCounts(ctx context.Context, id types.AuditID) ([]types.RuleStatusCount, error) {
	var rows []types.RuleStatusCount
	if err := s.q.selectAll(ctx, "rule-status-counts", &rows, string(id)); err != nil {
		return nil, err
	}
	return rows, nil
}
