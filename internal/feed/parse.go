// internal/feed/parse.go
package feed

/*
 * Record parsing.
 *
 * Header-driven: the first non-empty line names the columns, every
 * subsequent line is one row keyed by those names. A single quote-aware,
 * tab-delimited tokenizer is used uniformly; there is no parser-library
 * try/fallback pair. The tokenizer tolerates embedded quotes and ragged
 * trailing columns (missing trailing tabs read as empty trailing fields).
 *
 * Rows that truly cannot be reconstructed (unterminated quoting, more
 * fields than the header) are skipped and counted, never fabricated.
 */

import (
	"log/slog"
	"strings"

	"github.com/feedaudit/feedaudit/internal/types"
)

// Row is one parsed feed row keyed by source column name.
type Row map[string]string

// ParseStats counts the outcome of a parse pass.
type ParseStats struct {
	TotalRows   int // data lines seen (excluding header and blank lines)
	ParsedRows  int
	SkippedRows int
}

// Parse turns sanitized feed text into an ordered sequence of rows.
// Per-row failures are recoverable: the row is skipped, counted and logged.
func Parse(text string) ([]Row, ParseStats, error) {
	lines := splitLines(text)

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ParseStats{}, types.ErrEmptyFeed
	}

	header, ok := tokenizeLine(lines[headerIdx])
	if !ok {
		return nil, ParseStats{}, types.ErrEmptyFeed
	}

	var stats ParseStats
	rows := make([]Row, 0, len(lines)-headerIdx-1)
	for i := headerIdx + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.TotalRows++

		fields, ok := tokenizeLine(line)
		if !ok || len(fields) > len(header) {
			stats.SkippedRows++
			slog.Warn("skipping unparseable feed row", "line", i+1)
			continue
		}
		// Ragged trailing columns: pad with empty fields.
		for len(fields) < len(header) {
			fields = append(fields, "")
		}

		row := make(Row, len(header))
		for j, name := range header {
			// Field cleaning re-applied as a safety net during parse.
			row[name] = cleanField(fields[j])
		}
		rows = append(rows, row)
		stats.ParsedRows++
	}

	return rows, stats, nil
}

// tokenizeLine splits one line on tabs, honoring quoting: tabs inside an
// open quote belong to the field, "" inside quotes reads as a literal quote,
// and \" is always a literal quote. Returns ok=false when quoting never
// terminates, which is the one shape the tokenizer cannot reconstruct.
func tokenizeLine(line string) ([]string, bool) {
	var fields []string
	var b strings.Builder
	inQuotes := false
	escaped := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				b.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == '\t' && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, false
	}
	if escaped {
		b.WriteRune('\\')
	}
	fields = append(fields, b.String())
	return fields, true
}
