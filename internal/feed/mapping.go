// internal/feed/mapping.go
package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/feedaudit/feedaudit/internal/types"
)

// Mapping maps source column names to canonical field identifiers. It is
// supplied by the caller; columns absent from the mapping are not evaluated.
type Mapping map[string]string

// LoadMapping reads a column mapping from a JSON file of the shape
// {"source column": "canonical_field", ...}.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("mapping is empty")
	}
	return m, nil
}

// Project builds one canonical record per row by applying the column
// mapping. Missing and unmapped values normalize to the empty string so
// every condition can assume a string.
func Project(rows []Row, mapping Mapping) []types.Record {
	records := make([]types.Record, len(rows))
	for i, row := range rows {
		rec := make(types.Record, len(mapping))
		for src, canonical := range mapping {
			rec[canonical] = row[src]
		}
		records[i] = rec
	}
	return records
}

// ProductID resolves the id-equivalent field of a record, falling back to
// the NoProductID placeholder so records are never dropped for lacking one.
func ProductID(rec types.Record) string {
	if id := strings.TrimSpace(rec["id"]); id != "" {
		return id
	}
	return types.NoProductID
}
