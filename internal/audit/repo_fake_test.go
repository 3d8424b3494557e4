package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/feedaudit/feedaudit/internal/types"
)

// fakeRepo is an in-memory Repository for pipeline tests. It records every
// progress update and insert call so tests can assert on chunking behavior.
type fakeRepo struct {
	mu      sync.Mutex
	audits  map[types.AuditID]*types.Audit
	rules   map[types.RuleID]types.Rule
	results []types.AuditResult
	feeds   map[types.AuditID]savedFeed

	progressUpdates []int // progress values in update order
	insertCalls     int

	failInsertAt int // 1-based insert call that fails; 0 disables
}

type savedFeed struct {
	content string
	mapping map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		audits: make(map[types.AuditID]*types.Audit),
		rules:  make(map[types.RuleID]types.Rule),
		feeds:  make(map[types.AuditID]savedFeed),
	}
}

func (f *fakeRepo) addRule(r types.Rule) {
	f.rules[r.ID] = r
}

func (f *fakeRepo) CreateAudit(ctx context.Context, a *types.Audit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *a
	f.audits[a.ID] = &copied
	return nil
}

func (f *fakeRepo) GetAudit(ctx context.Context, id types.AuditID) (*types.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return nil, types.ErrAuditNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeRepo) UpdateAuditProgress(ctx context.Context, id types.AuditID, rulesProcessed, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return types.ErrAuditNotFound
	}
	a.RulesProcessed = rulesProcessed
	a.Progress = progress
	f.progressUpdates = append(f.progressUpdates, progress)
	return nil
}

func (f *fakeRepo) FinalizeAudit(ctx context.Context, id types.AuditID, counts types.ComplianceCounts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return types.ErrAuditNotFound
	}
	a.State = types.AuditCompleted
	a.Progress = 100
	a.CompliantProducts = counts.Compliant
	a.WarningProducts = counts.Warning
	a.CriticalProducts = counts.Critical
	return nil
}

func (f *fakeRepo) MarkAuditFailed(ctx context.Context, id types.AuditID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return types.ErrAuditNotFound
	}
	a.State = types.AuditFailed
	return nil
}

func (f *fakeRepo) SaveFeed(ctx context.Context, id types.AuditID, content string, mapping map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds[id] = savedFeed{content: content, mapping: mapping}
	return nil
}

func (f *fakeRepo) GetFeed(ctx context.Context, id types.AuditID) (string, map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved, ok := f.feeds[id]
	if !ok {
		return "", nil, types.ErrAuditNotFound
	}
	return saved.content, saved.mapping, nil
}

func (f *fakeRepo) RulesByIDs(ctx context.Context, ids []types.RuleID) ([]types.Rule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Rule, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.rules[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertResults(ctx context.Context, results []types.AuditResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.failInsertAt > 0 && f.insertCalls == f.failInsertAt {
		return errAssertInsert
	}
	f.results = append(f.results, results...)
	return nil
}

func (f *fakeRepo) ResultsByAudit(ctx context.Context, id types.AuditID) ([]types.AuditResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.AuditResult, 0, len(f.results))
	for _, r := range f.results {
		if r.AuditID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ExportCells(ctx context.Context, id types.AuditID) ([]types.ExportCell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.ExportCell, 0, len(f.results))
	for _, r := range f.results {
		if r.AuditID != id {
			continue
		}
		name := string(r.RuleID)
		if rule, ok := f.rules[r.RuleID]; ok {
			name = rule.Name
		}
		out = append(out, types.ExportCell{
			ProductID: r.ProductID,
			RuleName:  name,
			Status:    r.Status,
			Details:   r.Details,
		})
	}
	return out, nil
}

func (f *fakeRepo) ProductStatuses(ctx context.Context, id types.AuditID) ([]types.ProductStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[types.ProductStatus]bool)
	var out []types.ProductStatus
	for _, r := range f.results {
		if r.AuditID != id {
			continue
		}
		ps := types.ProductStatus{ProductID: r.ProductID, Status: r.Status}
		if !seen[ps] {
			seen[ps] = true
			out = append(out, ps)
		}
	}
	return out, nil
}

func (f *fakeRepo) RuleStatusCounts(ctx context.Context, id types.AuditID) ([]types.RuleStatusCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type key struct {
		ruleID types.RuleID
		status types.Status
	}
	distinct := make(map[key]map[string]bool)
	for _, r := range f.results {
		if r.AuditID != id {
			continue
		}
		k := key{ruleID: r.RuleID, status: r.Status}
		if distinct[k] == nil {
			distinct[k] = make(map[string]bool)
		}
		distinct[k][r.ProductID] = true
	}
	out := make([]types.RuleStatusCount, 0, len(distinct))
	for k, products := range distinct {
		name := string(k.ruleID)
		if rule, ok := f.rules[k.ruleID]; ok {
			name = rule.Name
		}
		out = append(out, types.RuleStatusCount{
			RuleID:   k.ruleID,
			RuleName: name,
			Status:   k.status,
			Products: len(products),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RuleName != out[j].RuleName {
			return out[i].RuleName < out[j].RuleName
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}
