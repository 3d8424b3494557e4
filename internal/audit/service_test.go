package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedaudit/feedaudit/internal/feed"
	"github.com/feedaudit/feedaudit/internal/types"
)

const testFeed = "Artikelnummer\tProduktname\tPreis\n" +
	"sku-1\tWinterjacke\t99.90\n" +
	"sku-2\t\t19.90\n" +
	"sku-3\tHose\tinvalid\n"

var testMapping = feed.Mapping{
	"Artikelnummer": "id",
	"Produktname":   "title",
	"Preis":         "price",
}

func serviceFixture() (*Service, *fakeRepo, []types.RuleID) {
	repo := newFakeRepo()
	repo.addRule(types.Rule{
		ID:          "rule-title",
		Name:        "title present",
		Criticality: types.CriticalityCritical,
		Condition:   types.NotEmptyCondition{Field: "title"},
	})
	repo.addRule(types.Rule{
		ID:          "rule-price",
		Name:        "price in range",
		Criticality: types.CriticalityWarning,
		Condition:   types.RangeCondition{Field: "price", Min: 0.01, Max: 1000},
	})
	return NewService(repo, 2, nil), repo, []types.RuleID{"rule-title", "rule-price"}
}

func TestRunAudit_EndToEnd(t *testing.T) {
	svc, repo, ruleIDs := serviceFixture()

	a, err := svc.RunAudit(context.Background(), "august feed", []byte(testFeed), testMapping, ruleIDs)
	require.NoError(t, err)

	assert.Equal(t, types.AuditCompleted, a.State)
	assert.Equal(t, 100, a.Progress)
	assert.Equal(t, 3, a.TotalProducts)
	assert.Equal(t, 2, a.TotalRules)
	assert.Equal(t, 6, a.RulesProcessed)
	assert.NotEmpty(t, a.Fingerprint)

	// sku-1 passes both rules, sku-2 has an empty title (critical), sku-3
	// has a non-numeric price (warning, escalated to rule criticality).
	assert.Equal(t, 1, a.CompliantProducts)
	assert.Equal(t, 1, a.WarningProducts)
	assert.Equal(t, 1, a.CriticalProducts)

	results, err := repo.ResultsByAudit(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, results, 6)

	content, mapping, err := repo.GetFeed(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Contains(t, content, "Winterjacke")
	assert.Equal(t, map[string]string(testMapping), mapping)
}

func TestRunAudit_FatalIngestionErrors(t *testing.T) {
	svc, repo, ruleIDs := serviceFixture()

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{
			name:    "empty feed",
			raw:     "   \n ",
			wantErr: types.ErrEmptyFeed,
		},
		{
			name: "column count mismatch",
			raw:  "id\ttitle\tprice\nsku-1\tonly-two",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RunAudit(context.Background(), "bad", []byte(tt.raw), testMapping, ruleIDs)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var serr *feed.StructureError
				assert.ErrorAs(t, err, &serr)
			}
			assert.Empty(t, repo.audits, "no audit row exists after a fatal ingestion error")
		})
	}
}

func TestRunAudit_ProcessingFailureMarksAuditFailed(t *testing.T) {
	svc, repo, ruleIDs := serviceFixture()
	repo.failInsertAt = 1

	_, err := svc.RunAudit(context.Background(), "doomed", []byte(testFeed), testMapping, ruleIDs)
	require.ErrorIs(t, err, errAssertInsert)

	require.Len(t, repo.audits, 1)
	for _, a := range repo.audits {
		assert.Equal(t, types.AuditFailed, a.State)
	}
}

func TestReprocess(t *testing.T) {
	svc, repo, ruleIDs := serviceFixture()

	original, err := svc.RunAudit(context.Background(), "august feed", []byte(testFeed), testMapping, ruleIDs)
	require.NoError(t, err)

	// Re-audit the stored content under a single rule.
	second, err := svc.Reprocess(context.Background(), original.ID, "", ruleIDs[:1])
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, second.ID)
	assert.Equal(t, "august feed (reprocessed)", second.Name)
	assert.Equal(t, original.Fingerprint, second.Fingerprint, "reprocessing shares the original content")
	assert.Equal(t, original.TotalProducts, second.TotalProducts)
	assert.Equal(t, 1, second.TotalRules)
	assert.Equal(t, types.AuditCompleted, second.State)

	// The original audit is untouched.
	reloaded, err := repo.GetAudit(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, original.State, reloaded.State)
	assert.Equal(t, original.CompliantProducts, reloaded.CompliantProducts)
}

func TestReprocess_UnknownAudit(t *testing.T) {
	svc, _, ruleIDs := serviceFixture()

	_, err := svc.Reprocess(context.Background(), types.AuditID("no-such-audit"), "", ruleIDs)
	assert.True(t, errors.Is(err, types.ErrAuditNotFound))
}
