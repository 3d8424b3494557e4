// internal/audit/processor.go
package audit

/*
 * Batch processing.
 *
 * Partitions the record set into contiguous chunks and evaluates every rule
 * against every record in each chunk. Chunks are processed and persisted
 * strictly one at a time so memory stays bounded and progress reporting
 * stays monotonic; within a chunk, per-record evaluation shares no mutable
 * state and runs on an errgroup worker pool without changing the order of
 * persisted results.
 *
 * Progress is floor(rulesProcessed / (ruleCount x recordCount) x 100),
 * updated after every chunk. A final explicit write pins progress to 100
 * and records the aggregate counts, since flooring can leave the running
 * value at 99 after the last chunk.
 */

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/feedaudit/feedaudit/internal/feed"
	"github.com/feedaudit/feedaudit/internal/rules"
	"github.com/feedaudit/feedaudit/internal/types"
	"github.com/feedaudit/feedaudit/internal/vocab"
)

// DefaultChunkSize is the number of records per persisted chunk.
const DefaultChunkSize = 100

// Processor evaluates rule sets over record sets in chunks. The regex cache
// is owned by the processor's lifetime: a fresh processor starts cold.
type Processor struct {
	repo      Repository
	eval      *rules.Evaluator
	chunkSize int
	log       *slog.Logger
}

// NewProcessor creates a processor writing to repo. chunkSize <= 0 selects
// DefaultChunkSize; a nil logger selects slog.Default().
func NewProcessor(repo Repository, chunkSize int, log *slog.Logger) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		repo:      repo,
		eval:      rules.NewEvaluator(vocab.NewResolver(), rules.NewRegexCache()),
		chunkSize: chunkSize,
		log:       log,
	}
}

// Run evaluates ruleSet against records, persisting results chunk by chunk
// and updating the audit's progress counters after each chunk. Once every
// chunk has committed it computes the aggregate counts and finalizes the
// audit. Persistence errors abort between chunks; committed chunks remain.
func (p *Processor) Run(ctx context.Context, auditID types.AuditID, records []types.Record, ruleSet []types.Rule) error {
	total := len(records) * len(ruleSet)
	rulesProcessed := 0

	for start := 0; start < len(records); start += p.chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + p.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		results := p.evaluateChunk(ctx, auditID, chunk, ruleSet)
		valid, placeholders := filterResults(results)
		if placeholders > 0 {
			p.log.Warn("records without product id merged under placeholder",
				"audit_id", auditID, "chunk_start", start, "count", placeholders)
		}

		if err := p.repo.InsertResults(ctx, valid); err != nil {
			return fmt.Errorf("persist chunk at %d: %w", start, err)
		}

		rulesProcessed += len(chunk) * len(ruleSet)
		progress := 0
		if total > 0 {
			progress = rulesProcessed * 100 / total
		}
		if err := p.repo.UpdateAuditProgress(ctx, auditID, rulesProcessed, progress); err != nil {
			return fmt.Errorf("update progress at %d: %w", start, err)
		}

		p.log.Debug("chunk persisted",
			"audit_id", auditID, "chunk_start", start, "results", len(valid), "progress", progress)
	}

	counts, _, err := Aggregate(ctx, p.repo, auditID)
	if err != nil {
		return fmt.Errorf("aggregate audit %s: %w", auditID, err)
	}
	if err := p.repo.FinalizeAudit(ctx, auditID, counts); err != nil {
		return fmt.Errorf("finalize audit %s: %w", auditID, err)
	}

	p.log.Info("audit completed",
		"audit_id", auditID,
		"compliant", counts.Compliant, "warning", counts.Warning, "critical", counts.Critical)
	return nil
}

// evaluateChunk computes the chunk's (record x rule) cross product on a
// worker pool over records. Results land at fixed indexes, so the persisted
// order is identical to sequential evaluation.
func (p *Processor) evaluateChunk(ctx context.Context, auditID types.AuditID, chunk []types.Record, ruleSet []types.Rule) []types.AuditResult {
	results := make([]types.AuditResult, len(chunk)*len(ruleSet))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, rec := range chunk {
		i, rec := i, rec
		g.Go(func() error {
			productID := feed.ProductID(rec)
			for j, rule := range ruleSet {
				verdict := p.eval.Evaluate(rec, rule)
				results[i*len(ruleSet)+j] = types.AuditResult{
					AuditID:   auditID,
					RuleID:    rule.ID,
					ProductID: productID,
					Status:    verdict.Status,
					Details:   verdict.Details,
				}
			}
			return nil
		})
	}
	// Evaluation never returns errors; Wait only joins the workers.
	_ = g.Wait()

	return results
}

// filterResults drops structurally invalid entries (missing rule id, product
// id or status). Defensive: evaluation guarantees these fields, but a bad
// row must not poison a chunk insert. Also counts placeholder product ids.
func filterResults(results []types.AuditResult) (valid []types.AuditResult, placeholders int) {
	valid = results[:0]
	for _, r := range results {
		if r.RuleID == "" || r.ProductID == "" || r.Status == "" {
			continue
		}
		if r.ProductID == types.NoProductID {
			placeholders++
		}
		valid = append(valid, r)
	}
	return valid, placeholders
}
