package audit

import (
	"context"
	"sort"

	"github.com/feedaudit/feedaudit/internal/types"
)

// Aggregate tallies compliance for one audit from the persisted result set:
// per-product worst-status counts, and a per-rule breakdown of status
// percentages computed over the distinct product count for each rule so
// duplicate evaluations do not skew the distribution.
func Aggregate(ctx context.Context, repo Repository, id types.AuditID) (types.ComplianceCounts, []types.RuleBreakdown, error) {
	statuses, err := repo.ProductStatuses(ctx, id)
	if err != nil {
		return types.ComplianceCounts{}, nil, err
	}

	worst := make(map[string]types.Status, len(statuses))
	for _, ps := range statuses {
		if severity(ps.Status) > severity(worst[ps.ProductID]) {
			worst[ps.ProductID] = ps.Status
		}
	}

	var counts types.ComplianceCounts
	for _, status := range worst {
		switch status {
		case types.StatusCritical:
			counts.Critical++
		case types.StatusWarning:
			counts.Warning++
		default:
			counts.Compliant++
		}
	}

	breakdown, err := ruleBreakdown(ctx, repo, id)
	if err != nil {
		return types.ComplianceCounts{}, nil, err
	}
	return counts, breakdown, nil
}

// severity orders statuses for the worst-status fold. The zero value (an
// absent product) sorts below ok.
func severity(s types.Status) int {
	switch s {
	case types.StatusCritical:
		return 3
	case types.StatusWarning:
		return 2
	case types.StatusOK:
		return 1
	default:
		return 0
	}
}

func ruleBreakdown(ctx context.Context, repo Repository, id types.AuditID) ([]types.RuleBreakdown, error) {
	rows, err := repo.RuleStatusCounts(ctx, id)
	if err != nil {
		return nil, err
	}

	type tally struct {
		ok, warning, critical int
	}
	tallies := make(map[string]*tally)
	for _, row := range rows {
		t, exists := tallies[row.RuleName]
		if !exists {
			t = &tally{}
			tallies[row.RuleName] = t
		}
		switch row.Status {
		case types.StatusOK:
			t.ok += row.Products
		case types.StatusWarning:
			t.warning += row.Products
		case types.StatusCritical:
			t.critical += row.Products
		}
	}

	breakdown := make([]types.RuleBreakdown, 0, len(tallies))
	for name, t := range tallies {
		products := t.ok + t.warning + t.critical
		b := types.RuleBreakdown{RuleName: name, Products: products}
		if products > 0 {
			b.OKPct = pct(t.ok, products)
			b.WarningPct = pct(t.warning, products)
			b.CriticalPct = pct(t.critical, products)
		}
		breakdown = append(breakdown, b)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].RuleName < breakdown[j].RuleName })
	return breakdown, nil
}

func pct(n, total int) float64 {
	return float64(n) * 100 / float64(total)
}
