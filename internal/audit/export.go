// internal/audit/export.go
package audit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/feedaudit/feedaudit/internal/types"
)

// NotEvaluated marks a (product, rule) pair with no persisted result.
const NotEvaluated = "N/A"

// Export writes the audit's results as a tab-separated table: one row per
// distinct product id, one column per distinct rule name (sorted), cell =
// status or "status: details" when details exist. Pairs never evaluated
// read N/A.
func Export(ctx context.Context, repo Repository, id types.AuditID, w io.Writer) error {
	cells, err := repo.ExportCells(ctx, id)
	if err != nil {
		return err
	}

	ruleSet := make(map[string]struct{})
	products := make(map[string]struct{})
	table := make(map[string]map[string]string) // product -> rule name -> cell
	for _, c := range cells {
		ruleSet[c.RuleName] = struct{}{}
		products[c.ProductID] = struct{}{}
		row, exists := table[c.ProductID]
		if !exists {
			row = make(map[string]string)
			table[c.ProductID] = row
		}
		cell := string(c.Status)
		if c.Details != "" {
			cell = fmt.Sprintf("%s: %s", c.Status, c.Details)
		}
		row[c.RuleName] = cell
	}

	ruleNames := sortedKeys(ruleSet)
	productIDs := sortedKeys(products)

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "product_id\t%s\n", strings.Join(ruleNames, "\t")); err != nil {
		return err
	}
	for _, productID := range productIDs {
		row := table[productID]
		fields := make([]string, 0, len(ruleNames)+1)
		fields = append(fields, productID)
		for _, name := range ruleNames {
			cell, evaluated := row[name]
			if !evaluated {
				cell = NotEvaluated
			}
			fields = append(fields, cell)
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
