// internal/feed/parse_test.go
package feed

import (
	"errors"
	"reflect"
	"testing"

	"github.com/feedaudit/feedaudit/internal/types"
)

func TestParse_Basic(t *testing.T) {
	text := "id\ttitle\tprice\n1\tRed Shirt\t9.99\n2\tBlue Shirt\t19.99"
	rows, stats, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if stats.TotalRows != 2 || stats.ParsedRows != 2 || stats.SkippedRows != 0 {
		t.Errorf("ParseStats = %+v, want 2 total, 2 parsed, 0 skipped", stats)
	}
	want := Row{"id": "1", "title": "Red Shirt", "price": "9.99"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("rows[0] = %v, want %v", rows[0], want)
	}
}

func TestParse_EmptyFeed(t *testing.T) {
	if _, _, err := Parse("\n  \n"); !errors.Is(err, types.ErrEmptyFeed) {
		t.Errorf("Parse() error = %v, want ErrEmptyFeed", err)
	}
}

func TestParse_RaggedTrailingFieldsPadded(t *testing.T) {
	text := "id\ttitle\tprice\n1\tShirt"
	rows, stats, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if stats.ParsedRows != 1 {
		t.Fatalf("ParsedRows = %d, want 1", stats.ParsedRows)
	}
	if rows[0]["price"] != "" {
		t.Errorf("missing trailing field = %q, want empty string", rows[0]["price"])
	}
}

func TestParse_SkipsIrreparableRows(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "more fields than header",
			text: "id\ttitle\n1\ta\textra\n2\tb",
		},
		{
			name: "unterminated quote",
			text: "id\ttitle\n1\t\"broken\n2\tb",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, stats, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse() error = %v, want nil", err)
			}
			if stats.TotalRows != 2 || stats.ParsedRows != 1 || stats.SkippedRows != 1 {
				t.Errorf("ParseStats = %+v, want 2 total, 1 parsed, 1 skipped", stats)
			}
			if len(rows) != 1 || rows[0]["id"] != "2" {
				t.Errorf("rows = %v, want only the repairable row", rows)
			}
		})
	}
}

func TestParse_BlankLinesIgnored(t *testing.T) {
	text := "\nid\ttitle\n\n1\ta\n\n"
	rows, stats, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if stats.TotalRows != 1 || len(rows) != 1 {
		t.Errorf("stats = %+v, rows = %d, want exactly one data row", stats, len(rows))
	}
}

func TestTokenizeLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   []string
		wantOK bool
	}{
		{
			name:   "plain fields",
			line:   "a\tb\tc",
			want:   []string{"a", "b", "c"},
			wantOK: true,
		},
		{
			name:   "empty fields preserved",
			line:   "a\t\tc",
			want:   []string{"a", "", "c"},
			wantOK: true,
		},
		{
			name:   "tab inside quotes belongs to field",
			line:   "a\t\"x\ty\"\tc",
			want:   []string{"a", "x\ty", "c"},
			wantOK: true,
		},
		{
			name:   "doubled quote inside quotes is literal",
			line:   "\"say \"\"hi\"\"\"\tb",
			want:   []string{`say "hi"`, "b"},
			wantOK: true,
		},
		{
			name:   "backslash-escaped quote is literal",
			line:   `a \"quoted\"` + "\tb",
			want:   []string{`a "quoted"`, "b"},
			wantOK: true,
		},
		{
			name:   "unterminated quote fails",
			line:   "a\t\"open",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tokenizeLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("tokenizeLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenizeLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestProject(t *testing.T) {
	rows := []Row{
		{"Artikelnummer": "sku-1", "Produktname": "Jacke", "ignored": "x"},
		{"Artikelnummer": "", "Produktname": "Hose"},
	}
	mapping := Mapping{"Artikelnummer": "id", "Produktname": "title"}

	records := Project(rows, mapping)
	if len(records) != 2 {
		t.Fatalf("Project() produced %d records, want 2", len(records))
	}
	want := types.Record{"id": "sku-1", "title": "Jacke"}
	if !reflect.DeepEqual(records[0], want) {
		t.Errorf("records[0] = %v, want %v", records[0], want)
	}
	if _, mapped := records[0]["ignored"]; mapped {
		t.Errorf("unmapped column leaked into the record")
	}
}

func TestProductID(t *testing.T) {
	tests := []struct {
		name string
		rec  types.Record
		want string
	}{
		{name: "present", rec: types.Record{"id": "sku-9"}, want: "sku-9"},
		{name: "whitespace only", rec: types.Record{"id": "   "}, want: types.NoProductID},
		{name: "missing", rec: types.Record{"title": "x"}, want: types.NoProductID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProductID(tt.rec); got != tt.want {
				t.Errorf("ProductID() = %q, want %q", got, tt.want)
			}
		})
	}
}
