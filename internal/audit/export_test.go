package audit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedaudit/feedaudit/internal/types"
)

func TestExport_Table(t *testing.T) {
	repo := newFakeRepo()
	repo.addRule(types.Rule{ID: "r-title", Name: "title present"})
	repo.addRule(types.Rule{ID: "r-price", Name: "price in range"})
	id := types.AuditID("audit-export")

	seedResults(repo, id,
		types.AuditResult{RuleID: "r-title", ProductID: "sku-1", Status: types.StatusOK},
		types.AuditResult{RuleID: "r-price", ProductID: "sku-1", Status: types.StatusWarning, Details: `field "price" value 0 outside range [0.01, 100]`},
		// sku-2 was only evaluated against one rule.
		types.AuditResult{RuleID: "r-title", ProductID: "sku-2", Status: types.StatusCritical, Details: `field "title" is empty`},
	)

	var buf strings.Builder
	require.NoError(t, Export(context.Background(), repo, id, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3, "header plus one row per product")

	// Rule columns are sorted by name.
	assert.Equal(t, "product_id\tprice in range\ttitle present", lines[0])

	row1 := strings.Split(lines[1], "\t")
	require.Len(t, row1, 3)
	assert.Equal(t, "sku-1", row1[0])
	assert.Equal(t, `warning: field "price" value 0 outside range [0.01, 100]`, row1[1])
	assert.Equal(t, "ok", row1[2])

	row2 := strings.Split(lines[2], "\t")
	assert.Equal(t, "sku-2", row2[0])
	assert.Equal(t, NotEvaluated, row2[1], "never-evaluated pair reads N/A")
	assert.Equal(t, `critical: field "title" is empty`, row2[2])
}

func TestExport_EmptyAudit(t *testing.T) {
	repo := newFakeRepo()

	var buf strings.Builder
	require.NoError(t, Export(context.Background(), repo, types.AuditID("empty"), &buf))

	assert.Equal(t, "product_id\t\n", buf.String())
}

func TestExport_ProductRowsSorted(t *testing.T) {
	repo := newFakeRepo()
	repo.addRule(types.Rule{ID: "r1", Name: "rule"})
	id := types.AuditID("audit-sorted")

	seedResults(repo, id,
		types.AuditResult{RuleID: "r1", ProductID: "zzz", Status: types.StatusOK},
		types.AuditResult{RuleID: "r1", ProductID: "aaa", Status: types.StatusOK},
		types.AuditResult{RuleID: "r1", ProductID: "mmm", Status: types.StatusOK},
	)

	var buf strings.Builder
	require.NoError(t, Export(context.Background(), repo, id, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "aaa\t"))
	assert.True(t, strings.HasPrefix(lines[2], "mmm\t"))
	assert.True(t, strings.HasPrefix(lines[3], "zzz\t"))
}
