// internal/feed/sanitize_test.go
package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/feedaudit/feedaudit/internal/types"
)

func TestSanitize_EmptyFeed(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, []byte("   \n\t  ")} {
		if _, err := Sanitize(raw); !errors.Is(err, types.ErrEmptyFeed) {
			t.Errorf("Sanitize(%q) error = %v, want ErrEmptyFeed", raw, err)
		}
	}
}

func TestSanitize_BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id\ttitle\n1\tfoo")...)
	got, err := Sanitize(raw)
	if err != nil {
		t.Fatalf("Sanitize() error = %v, want nil", err)
	}
	if !strings.HasPrefix(got, "id\t") {
		t.Errorf("Sanitize() did not strip BOM, got %q", got[:4])
	}
}

func TestSanitize_Fields(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "doubled quotes collapse",
			in:   `he said ""hi"" ok`,
			want: `he said "hi" ok`,
		},
		{
			name: "quote run collapses to a repaired quote",
			in:   `""""`,
			want: `\"`,
		},
		{
			name: "balanced quotes untouched",
			in:   `size "large" fit`,
			want: `size "large" fit`,
		},
		{
			name: "odd quote count escaped",
			in:   `broken "field`,
			want: `broken \"field`,
		},
		{
			name: "control char after quote stripped",
			in:   "tag \"\x07value",
			want: `tag \"value`,
		},
		{
			name: "whitespace trimmed",
			in:   "  padded value  ",
			want: "padded value",
		},
		{
			name: "already escaped quote stays",
			in:   `ok \"quoted\" text`,
			want: `ok \"quoted\" text`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanField(tt.in); got != tt.want {
				t.Errorf("cleanField(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Collapsing "" to " can itself produce an odd quote count; the escape pass
// must then neutralize the remainder so the final field is always balanced.
func TestSanitize_CollapseThenEscape(t *testing.T) {
	got := cleanField(`a ""b" c`)
	if unescapedQuoteCount(got)%2 != 0 {
		t.Errorf("cleanField left unbalanced quotes: %q", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sanitizing sanitized content changes nothing", prop.ForAll(
		func(field string) bool {
			once := cleanField(field)
			twice := cleanField(once)
			return once == twice
		},
		gen.RegexMatch(`[ a-zA-Z0-9"\\,;.\t]{0,40}`),
	))

	properties.Property("whole-document sanitize is idempotent", prop.ForAll(
		func(a, b, c string) bool {
			raw := []byte(a + "\t" + b + "\n" + c)
			once, err := Sanitize(raw)
			if err != nil {
				return errors.Is(err, types.ErrEmptyFeed)
			}
			twice, err := Sanitize([]byte(once))
			if err != nil {
				return errors.Is(err, types.ErrEmptyFeed)
			}
			return once == twice
		},
		gen.RegexMatch(`[ a-z"\\]{0,20}`),
		gen.RegexMatch(`[ a-z"\\]{0,20}`),
		gen.RegexMatch(`[ a-z"\\]{0,20}`),
	))

	properties.TestingRun(t)
}

func TestValidateStructure(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int // 0 means no error expected
	}{
		{
			name: "consistent columns",
			text: "id\ttitle\tprice\n1\ta\t9.99\n2\tb\t19.99",
		},
		{
			name: "blank lines ignored",
			text: "id\ttitle\n\n1\ta\n\n",
		},
		{
			name:     "row with one fewer field",
			text:     "id\ttitle\tprice\n1\ta\t9.99\n2\tb",
			wantLine: 3,
		},
		{
			name:     "row with extra field",
			text:     "id\ttitle\n1\ta\textra",
			wantLine: 2,
		},
		{
			name:     "leading blank lines shift line numbers",
			text:     "\n\nid\ttitle\n1\ta\tb",
			wantLine: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStructure(tt.text)
			if tt.wantLine == 0 {
				if err != nil {
					t.Fatalf("ValidateStructure() error = %v, want nil", err)
				}
				return
			}
			var serr *StructureError
			if !errors.As(err, &serr) {
				t.Fatalf("ValidateStructure() error = %v, want *StructureError", err)
			}
			if serr.Line != tt.wantLine {
				t.Errorf("StructureError.Line = %d, want %d", serr.Line, tt.wantLine)
			}
		})
	}
}

func TestValidateStructure_EmptyDocument(t *testing.T) {
	if err := ValidateStructure("\n  \n"); !errors.Is(err, types.ErrEmptyFeed) {
		t.Errorf("ValidateStructure() error = %v, want ErrEmptyFeed", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("id\ttitle\n1\tfoo"))
	b := Fingerprint([]byte("id\ttitle\n1\tfoo"))
	c := Fingerprint([]byte("id\ttitle\n1\tbar"))
	if a != b {
		t.Errorf("Fingerprint is not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("Fingerprint collision for different content")
	}
	if len(a) != 64 {
		t.Errorf("Fingerprint length = %d, want 64 hex chars", len(a))
	}
}
