// internal/feed/sanitize.go
package feed

/*
 * Feed sanitization.
 *
 * Repairs a raw tab-delimited byte stream before parsing. Cleaning is
 * applied per field, then per line, then per document:
 *   1. BOM-tolerant UTF-8 decode
 *   2. Collapse doubled quote-escape sequences ("" -> ")
 *   3. Strip ASCII control characters that immediately follow a quote
 *   4. Escape all quotes in fields with an odd unescaped-quote count
 *   5. Trim surrounding whitespace from every field
 *
 * Sanitization never aborts the pipeline; the only fatal ingestion check is
 * ValidateStructure, which requires every non-empty line to carry the
 * header's tab-delimited column count. Sanitizing already-clean content is
 * idempotent.
 */

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/feedaudit/feedaudit/internal/types"
)

// StructureError reports a row whose column count disagrees with the header.
// Fatal: downstream column mapping assumes positional and named consistency.
type StructureError struct {
	Line     int // 1-based line number of the offending row
	Expected int // header column count
	Actual   int // offending row column count
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("line %d: expected %d tab-delimited columns, got %d", e.Line, e.Expected, e.Actual)
}

// Sanitize decodes and repairs a raw feed. Returns the cleaned text, ready
// for ValidateStructure and Parse.
func Sanitize(raw []byte) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", types.ErrEmptyFeed
	}

	decoded, err := decodeUTF8(raw)
	if err != nil {
		// Decoding is tolerant (invalid bytes become U+FFFD); an error here
		// means the reader itself failed, which is fatal.
		return "", fmt.Errorf("decode feed: %w", err)
	}

	lines := splitLines(decoded)
	for i, line := range lines {
		lines[i] = sanitizeLine(line)
	}
	return strings.Join(lines, "\n"), nil
}

// decodeUTF8 strips a leading byte-order mark and replaces invalid UTF-8
// sequences with the replacement character.
func decodeUTF8(raw []byte) (string, error) {
	decoder := unicode.UTF8.NewDecoder()
	r := transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(decoder))
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// splitLines normalizes CRLF and CR line endings to LF and splits.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// sanitizeLine cleans every tab-delimited field of one line.
func sanitizeLine(line string) string {
	if line == "" {
		return line
	}
	fields := strings.Split(line, "\t")
	for i, f := range fields {
		fields[i] = cleanField(f)
	}
	return strings.Join(fields, "\t")
}

// cleanField repairs one field. Total function: every input produces a
// cleaned output, so the substitute-original failure policy is never needed.
//
// The repair passes iterate to a fixed point: collapsing a quote run can
// re-expose doubled quotes (`""""` collapses to `""`), and a single pass
// over such input would not be idempotent.
func cleanField(field string) string {
	for i := 0; i < 8; i++ {
		next := cleanFieldOnce(field)
		if next == field {
			break
		}
		field = next
	}
	return field
}

func cleanFieldOnce(field string) string {
	field = collapseDoubledQuotes(field)
	field = stripControlAfterQuote(field)
	if unescapedQuoteCount(field)%2 == 1 {
		field = escapeQuotes(field)
	}
	return strings.TrimSpace(field)
}

// collapseDoubledQuotes reduces each "" escape sequence to a single quote.
func collapseDoubledQuotes(field string) string {
	return strings.ReplaceAll(field, `""`, `"`)
}

// stripControlAfterQuote removes ASCII control characters (0x00-0x1F,
// 0x7F-0x9F) that immediately follow a quote character. Heuristic for
// corrupted exports where quoting broke mid-sequence.
func stripControlAfterQuote(field string) string {
	var b strings.Builder
	b.Grow(len(field))
	prevQuote := false
	for _, r := range field {
		if prevQuote && isControl(r) {
			continue
		}
		b.WriteRune(r)
		prevQuote = r == '"'
	}
	return b.String()
}

func isControl(r rune) bool {
	return (r >= 0x00 && r <= 0x1F) || (r >= 0x7F && r <= 0x9F)
}

// unescapedQuoteCount counts quotes not already preceded by a backslash.
// Counting only unescaped quotes keeps escapeQuotes idempotent.
func unescapedQuoteCount(field string) int {
	count := 0
	escaped := false
	for _, r := range field {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			count++
		}
	}
	return count
}

// escapeQuotes escapes every unescaped quote so the field reads as literal
// text instead of failing on unbalanced delimiters.
func escapeQuotes(field string) string {
	var b strings.Builder
	b.Grow(len(field) + 4)
	escaped := false
	for _, r := range field {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateStructure verifies that every non-empty line carries the header's
// tab-delimited column count. The first mismatch aborts ingestion with a
// line-numbered error; nothing downstream runs on a ragged feed.
func ValidateStructure(text string) error {
	lines := splitLines(text)
	header := ""
	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			header = line
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return types.ErrEmptyFeed
	}

	expected := strings.Count(header, "\t") + 1
	for i := headerIdx + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		actual := strings.Count(lines[i], "\t") + 1
		if actual != expected {
			return &StructureError{Line: i + 1, Expected: expected, Actual: actual}
		}
	}
	return nil
}

// Fingerprint returns the SHA-256 hex digest of the raw feed bytes, used as
// the audit's content fingerprint for dedup and the audit trail.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
